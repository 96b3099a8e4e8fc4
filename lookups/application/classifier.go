package application

import "github.com/AzielCF/az-lookups/lookups/domain"

// Classification is the outcome of partitioning the combined catalog.
type Classification struct {
	Buckets map[domain.BucketKind]domain.Bucket
	// Dropped counts records whose discriminator matched no table entry.
	Dropped int
}

// Classifier partitions a flat record list by its discriminator.
type Classifier struct {
	table domain.DiscriminatorTable
}

func NewClassifier(table domain.DiscriminatorTable) *Classifier {
	return &Classifier{table: table}
}

// Classify places every record in the bucket its discriminator names, keeping
// source order. Records with an unknown discriminator are dropped. Every
// bucket the table can produce is present in the result, possibly empty.
func (c *Classifier) Classify(records []domain.Record) Classification {
	out := Classification{
		Buckets: make(map[domain.BucketKind]domain.Bucket, len(c.table.Entries)),
	}
	for _, kind := range c.table.Kinds() {
		out.Buckets[kind] = domain.Bucket{}
	}

	for _, rec := range records {
		kind, ok := c.table.Entries[rec.Get(c.table.Path).String()]
		if !ok {
			out.Dropped++
			continue
		}
		out.Buckets[kind] = append(out.Buckets[kind], rec)
	}
	return out
}
