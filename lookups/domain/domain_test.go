package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBucket_NormalizesBadValues(t *testing.T) {
	cases := map[string]string{
		"empty":     "",
		"null":      "null",
		"object":    `{"a":1}`,
		"malformed": `[{"a":`,
		"number":    "42",
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			b := ParseBucket(value)
			require.NotNil(t, b)
			assert.Empty(t, b)
		})
	}
}

func TestParseBucket_PreservesOrderAndPayload(t *testing.T) {
	b := ParseBucket(`[{"id":2,"name":"Ms"},{"id":1,"name":"Mr"}]`)
	require.Len(t, b, 2)
	assert.Equal(t, int64(2), b[0].Get("id").Int())
	assert.Equal(t, "Mr", b[1].Get("name").String())

	out, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":2,"name":"Ms"},{"id":1,"name":"Mr"}]`, string(out))
}

func TestParseBucketKind(t *testing.T) {
	k, err := ParseBucketKind("gender")
	require.NoError(t, err)
	assert.Equal(t, BucketGender, k)

	k, err = ParseBucketKind("paymentTypeLookups")
	require.NoError(t, err)
	assert.Equal(t, BucketPaymentType, k)

	_, err = ParseBucketKind("shoeSize")
	assert.ErrorIs(t, err, ErrUnknownBucket)
}

func TestSnapshot_CloneIsIndependent(t *testing.T) {
	s := EmptySnapshot()
	s.Buckets[BucketCity] = Bucket{Record(`{"name":"Dublin"}`)}

	c := s.Clone()
	c.Buckets[BucketCity][0][2] = 'X'
	c.Buckets[BucketCity] = append(c.Buckets[BucketCity], Record(`{}`))

	assert.Len(t, s.Buckets[BucketCity], 1)
	assert.Equal(t, "Dublin", s.Buckets[BucketCity][0].Get("name").String())
}

func TestDiscriminatorTable_Kinds(t *testing.T) {
	table := DefaultDiscriminatorTable("")
	assert.Equal(t, DefaultDiscriminatorPath, table.Path)
	assert.Len(t, table.Kinds(), 8)
	assert.NotContains(t, table.Kinds(), BucketCountry)
}
