// Package qdrant provides a gRPC client for interacting with a Qdrant vector database.
// It handles collection management, batched upserts of text embeddings and reading a
// whole collection back as a dataset ready for projection.
package qdrant

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/nicolascine/embedding-viz/dataset"
)

// scrollPageSize is the number of points requested per scroll call.
const scrollPageSize = 256

// Client wraps gRPC connections to a Qdrant vector database instance.
type Client struct {
	connection        *grpc.ClientConn
	pointsClient      pb.PointsClient
	collectionsClient pb.CollectionsClient
	collectionName    string
	vectorSize        uint64
}

// Point represents a single vector embedding with its associated metadata.
// Each point has a unique ID, the original text that was embedded, and the embedding vector.
type Point struct {
	ID     string
	Text   string
	Vector []float32
}

// NewClient creates a new Qdrant client connected to the specified address.
// It initializes the gRPC connection and ensures the target collection exists,
// creating it with cosine distance if necessary.
func NewClient(ctx context.Context, address, collectionName string, vectorSize uint64) (*Client, error) {
	connection, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant: %w", err)
	}

	client := &Client{
		connection:        connection,
		pointsClient:      pb.NewPointsClient(connection),
		collectionsClient: pb.NewCollectionsClient(connection),
		collectionName:    collectionName,
		vectorSize:        vectorSize,
	}

	if err := client.ensureCollectionExists(ctx); err != nil {
		connection.Close()
		return nil, err
	}

	return client, nil
}

// ensureCollectionExists checks if the target collection exists in Qdrant.
// If it doesn't exist, it creates a new collection configured for cosine similarity.
func (client *Client) ensureCollectionExists(ctx context.Context) error {
	_, err := client.collectionsClient.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: client.collectionName,
	})
	if err == nil {
		return nil
	}

	_, err = client.collectionsClient.Create(ctx, &pb.CreateCollection{
		CollectionName: client.collectionName,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     client.vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	return nil
}

// Upsert inserts or updates points in the collection in a single request.
func (client *Client) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	structs := make([]*pb.PointStruct, len(points))
	for i, point := range points {
		structs[i] = toPointStruct(point)
	}

	_, err := client.pointsClient.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: client.collectionName,
		Points:         structs,
	})
	if err != nil {
		return fmt.Errorf("upsert %d points: %w", len(points), err)
	}
	return nil
}

// GetAll retrieves every point of the collection, scrolling page by page.
func (client *Client) GetAll(ctx context.Context) ([]Point, error) {
	var points []Point
	var offset *pb.PointId

	for {
		scrollResponse, err := client.pointsClient.Scroll(ctx, &pb.ScrollPoints{
			CollectionName: client.collectionName,
			Offset:         offset,
			WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
			WithVectors:    &pb.WithVectorsSelector{SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: true}},
			Limit:          pb.PtrOf(uint32(scrollPageSize)),
		})
		if err != nil {
			return nil, fmt.Errorf("scroll points: %w", err)
		}

		for _, retrievedPoint := range scrollResponse.Result {
			points = append(points, fromRetrievedPoint(retrievedPoint))
		}

		offset = scrollResponse.GetNextPageOffset()
		if offset == nil {
			return points, nil
		}
	}
}

// Dataset reads the whole collection as a dataset labeled by point text, with the
// point ID kept as metadata.
func (client *Client) Dataset(ctx context.Context) (*dataset.Dataset, error) {
	points, err := client.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return ToDataset(points), nil
}

// Close terminates the gRPC connection to the Qdrant server.
func (client *Client) Close() error {
	return client.connection.Close()
}

// ToDataset converts stored points to a dataset. Points without a vector are skipped.
func ToDataset(points []Point) *dataset.Dataset {
	vectors := make([][]float32, 0, len(points))
	labels := make([]string, 0, len(points))
	metadata := make([]map[string]any, 0, len(points))

	for _, point := range points {
		if len(point.Vector) == 0 {
			continue
		}
		vectors = append(vectors, point.Vector)
		labels = append(labels, point.Text)
		metadata = append(metadata, map[string]any{"id": point.ID})
	}

	d := dataset.FromFloat32(vectors, labels)
	d.Metadata = metadata
	return d
}

func toPointStruct(point Point) *pb.PointStruct {
	return &pb.PointStruct{
		Id: &pb.PointId{
			PointIdOptions: &pb.PointId_Uuid{Uuid: point.ID},
		},
		Vectors: &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vector{
				Vector: &pb.Vector{Data: point.Vector},
			},
		},
		Payload: map[string]*pb.Value{
			"text": {Kind: &pb.Value_StringValue{StringValue: point.Text}},
		},
	}
}

func fromRetrievedPoint(retrievedPoint *pb.RetrievedPoint) Point {
	var point Point
	point.ID = retrievedPoint.GetId().GetUuid()

	if textPayload, exists := retrievedPoint.GetPayload()["text"]; exists {
		point.Text = textPayload.GetStringValue()
	}

	if vectorData := retrievedPoint.GetVectors().GetVector(); vectorData != nil {
		point.Vector = vectorData.GetData()
	}

	return point
}
