package qdrant

import (
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointStructCarriesTextAndVector(t *testing.T) {
	point := Point{ID: "6f1c1c1e-0000-4000-8000-000000000001", Text: "hello", Vector: []float32{0.1, 0.2}}

	pointStruct := toPointStruct(point)
	assert.Equal(t, point.ID, pointStruct.GetId().GetUuid())
	assert.Equal(t, "hello", pointStruct.GetPayload()["text"].GetStringValue())
	assert.Equal(t, point.Vector, pointStruct.GetVectors().GetVector().GetData())

	retrieved := fromRetrievedPoint(&pb.RetrievedPoint{Id: pointStruct.Id, Payload: pointStruct.Payload})
	assert.Equal(t, point.ID, retrieved.ID)
	assert.Equal(t, "hello", retrieved.Text)
	assert.Nil(t, retrieved.Vector)
}

func TestFromRetrievedPointMissingFields(t *testing.T) {
	point := fromRetrievedPoint(&pb.RetrievedPoint{Id: pb.NewIDNum(7)})

	assert.Equal(t, Point{}, point)
}

func TestToDataset(t *testing.T) {
	d := ToDataset([]Point{
		{ID: "a", Text: "first", Vector: []float32{1, 2}},
		{ID: "b", Text: "no vector"},
		{ID: "c", Text: "second", Vector: []float32{3, 4}},
	})

	require.NoError(t, d.Validate())
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, []string{"first", "second"}, d.Labels)
	assert.Equal(t, "c", d.Meta(1)["id"])
	assert.Equal(t, []float64{3, 4}, d.Vectors[1])
}
