package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMeasure(t *testing.T) {
	assert.Len(t, Measures, 12)
	for _, m := range Measures {
		assert.True(t, IsMeasure(m), m)
	}
	assert.False(t, IsMeasure("adult obesity"))
	assert.False(t, IsMeasure("Adult obesity "))
	assert.False(t, IsMeasure("Premature death"))
	assert.False(t, IsMeasure(""))
}

func TestIsZIP(t *testing.T) {
	assert.True(t, IsZIP("02138"))
	assert.True(t, IsZIP("00000"))
	assert.False(t, IsZIP("2138"))
	assert.False(t, IsZIP("021380"))
	assert.False(t, IsZIP("0213a"))
	assert.False(t, IsZIP("02138'; DROP TABLE zip_county; --"))
	assert.False(t, IsZIP("０２１３８"))
}

func TestParseCountyDataRequest(t *testing.T) {
	req := ParseCountyDataRequest([]byte(`{"zip":"02138","measure_name":"Adult obesity","coffee":"teapot"}`))
	assert.Equal(t, CountyDataRequest{Zip: "02138", MeasureName: "Adult obesity", Coffee: "teapot"}, req)

	assert.Equal(t, CountyDataRequest{}, ParseCountyDataRequest([]byte(`not json`)))
	assert.Equal(t, CountyDataRequest{}, ParseCountyDataRequest([]byte(`["zip"]`)))
	assert.Equal(t, CountyDataRequest{}, ParseCountyDataRequest(nil))

	req = ParseCountyDataRequest([]byte(`{"zip":2138,"measure_name":null}`))
	assert.Equal(t, CountyDataRequest{}, req)
}
