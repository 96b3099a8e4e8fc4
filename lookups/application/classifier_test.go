package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AzielCF/az-lookups/lookups/domain"
)

func TestClassifier_CompletenessAndExclusivity(t *testing.T) {
	table := domain.DefaultDiscriminatorTable("")
	c := NewClassifier(table)

	var input []domain.Record
	for value := range table.Entries {
		input = append(input,
			rec(`{"lookupType":"`+value+`","n":1}`),
			rec(`{"lookupType":"`+value+`","n":2}`),
		)
	}
	input = append(input, rec(`{"lookupType":"Blood Group"}`), rec(`{"name":"no type"}`))

	out := c.Classify(input)

	total := 0
	for value, kind := range table.Entries {
		bucket := out.Buckets[kind]
		require.Len(t, bucket, 2, value)
		for _, r := range bucket {
			assert.Equal(t, value, r.Get("lookupType").String())
		}
		total += len(bucket)
	}
	assert.Equal(t, len(input)-2, total, "every known record lands in exactly one bucket")
	assert.Equal(t, 2, out.Dropped)
}

func TestClassifier_PreservesOrderAndEmitsEmptyBuckets(t *testing.T) {
	c := NewClassifier(domain.DefaultDiscriminatorTable(""))
	out := c.Classify([]domain.Record{
		rec(`{"lookupType":"Grade","n":"b"}`),
		rec(`{"lookupType":"Grade","n":"a"}`),
	})

	require.Len(t, out.Buckets[domain.BucketGrade], 2)
	assert.Equal(t, "b", out.Buckets[domain.BucketGrade][0].Get("n").String())
	assert.Equal(t, "a", out.Buckets[domain.BucketGrade][1].Get("n").String())

	gender, ok := out.Buckets[domain.BucketGender]
	assert.True(t, ok)
	assert.Empty(t, gender)
	_, ok = out.Buckets[domain.BucketCountry]
	assert.False(t, ok, "pre-bucketed catalogs bypass the classifier")
}

func TestClassifier_NestedDiscriminatorPath(t *testing.T) {
	c := NewClassifier(domain.DefaultDiscriminatorTable("lookuptypeId.lookuptype"))
	out := c.Classify([]domain.Record{
		rec(`{"lookuptypeId":{"lookuptype":"Secondary Section"}}`),
	})
	assert.Len(t, out.Buckets[domain.BucketSecondarySection], 1)
}
