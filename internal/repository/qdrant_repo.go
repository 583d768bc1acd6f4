package repository

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

const defaultVectorDimension = 1024

// QdrantIndexConfig holds configuration for one Qdrant-backed embedding index.
type QdrantIndexConfig struct {
	Host            string
	Port            int
	Collection      string
	APIKey          string // Qdrant Cloud API Key (enables TLS automatically)
	UseTLS          bool   // Explicitly enable TLS without API Key
	VectorDimension int
}

// apiKeyInterceptor creates a unary interceptor that adds API key to metadata
func apiKeyInterceptor(apiKey string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", apiKey)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// QdrantIndex is one global embedding index backed by a Qdrant collection.
// The collection is shared across all videos; queries narrow to a video
// subset through a payload filter on video_id.
type QdrantIndex struct {
	conn            *grpc.ClientConn
	pointsClient    pb.PointsClient
	collectClient   pb.CollectionsClient
	collectionName  string
	vectorDimension int
}

// NewQdrantIndex creates a QdrantIndex for a single collection.
// Supports both local Qdrant (insecure) and Qdrant Cloud (TLS + API Key).
func NewQdrantIndex(cfg *QdrantIndexConfig) (*QdrantIndex, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	vectorDimension := cfg.VectorDimension
	if vectorDimension <= 0 {
		vectorDimension = defaultVectorDimension
	}

	var opts []grpc.DialOption

	useTLS := cfg.UseTLS || cfg.APIKey != ""
	if useTLS {
		creds := credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS13})
		opts = append(opts, grpc.WithTransportCredentials(creds))

		if cfg.APIKey != "" {
			opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
		}
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	return &QdrantIndex{
		conn:            conn,
		pointsClient:    pb.NewPointsClient(conn),
		collectClient:   pb.NewCollectionsClient(conn),
		collectionName:  cfg.Collection,
		vectorDimension: vectorDimension,
	}, nil
}

// Close closes the gRPC connection.
func (r *QdrantIndex) Close() error {
	return r.conn.Close()
}

// Collection returns the backing collection name.
func (r *QdrantIndex) Collection() string {
	return r.collectionName
}

// EnsureCollection creates the collection if it doesn't exist. Re-creating
// an existing index is a no-op, not an error.
func (r *QdrantIndex) EnsureCollection(ctx context.Context) error {
	info, err := r.collectClient.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collectionName,
	})
	if err == nil {
		if size, ok := collectionVectorSize(info.GetResult()); ok {
			if size != uint64(r.vectorDimension) {
				return fmt.Errorf("collection %s has vector size %d, expected %d", r.collectionName, size, r.vectorDimension)
			}
		}
		return nil
	}

	_, err = r.collectClient.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collectionName,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(r.vectorDimension),
					Distance: pb.Distance_Cosine,
				},
			},
		},
		HnswConfig: &pb.HnswConfigDiff{
			M:                 optionalUint64(16),
			EfConstruct:       optionalUint64(128),
			FullScanThreshold: optionalUint64(10000),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

func optionalUint64(v uint64) *uint64 {
	return &v
}

func collectionVectorSize(info *pb.CollectionInfo) (uint64, bool) {
	if info == nil {
		return 0, false
	}

	config := info.GetConfig()
	if config == nil {
		return 0, false
	}

	params := config.GetParams()
	if params == nil {
		return 0, false
	}

	vectors := params.GetVectorsConfig()
	if vectors == nil {
		return 0, false
	}

	if single := vectors.GetParams(); single != nil {
		if size := single.GetSize(); size > 0 {
			return size, true
		}
	}

	return 0, false
}

// SegmentPayload is the payload stored with each vector point. Seq records
// global insertion order so equal-score results can be ranked stably.
type SegmentPayload struct {
	VideoID   string  `json:"video_id"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Text      string  `json:"text"`
	Seq       int64   `json:"seq"`
}

// Upsert inserts or updates a vector point with its segment payload.
func (r *QdrantIndex) Upsert(ctx context.Context, pointID string, vector []float32, payload *SegmentPayload) error {
	uid, err := uuid.Parse(pointID)
	if err != nil {
		return fmt.Errorf("invalid point ID: %w", err)
	}

	points := []*pb.PointStruct{
		{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: uid.String()},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: vector},
				},
			},
			Payload: map[string]*pb.Value{
				"video_id":   {Kind: &pb.Value_StringValue{StringValue: payload.VideoID}},
				"start_time": {Kind: &pb.Value_DoubleValue{DoubleValue: payload.StartTime}},
				"end_time":   {Kind: &pb.Value_DoubleValue{DoubleValue: payload.EndTime}},
				"text":       {Kind: &pb.Value_StringValue{StringValue: payload.Text}},
				"seq":        {Kind: &pb.Value_IntegerValue{IntegerValue: payload.Seq}},
			},
		},
	}

	_, err = r.pointsClient.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collectionName,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}

	return nil
}

// VectorHit represents one similarity search hit.
type VectorHit struct {
	ID      string
	Score   float32
	Payload *SegmentPayload
}

// Search performs a vector similarity search, optionally restricted to a
// set of video IDs. Results come back ordered by score descending.
func (r *QdrantIndex) Search(ctx context.Context, vector []float32, topK int, videoIDs []string) ([]VectorHit, error) {
	req := &pb.SearchPoints{
		CollectionName: r.collectionName,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	}

	if filter := videoIDFilter(videoIDs); filter != nil {
		req.Filter = filter
	}

	resp, err := r.pointsClient.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]VectorHit, len(resp.Result))
	for i, scored := range resp.Result {
		results[i] = VectorHit{
			ID:      scored.Id.GetUuid(),
			Score:   scored.Score,
			Payload: parsePayload(scored.Payload),
		}
	}

	return results, nil
}

// videoIDFilter builds a payload filter matching any of the given video IDs.
// An empty set means no filter (search whole index).
func videoIDFilter(videoIDs []string) *pb.Filter {
	if len(videoIDs) == 0 {
		return nil
	}

	keywords := make([]string, len(videoIDs))
	copy(keywords, videoIDs)

	return &pb.Filter{
		Must: []*pb.Condition{
			{
				ConditionOneOf: &pb.Condition_Field{
					Field: &pb.FieldCondition{
						Key: "video_id",
						Match: &pb.Match{
							MatchValue: &pb.Match_Keywords{
								Keywords: &pb.RepeatedStrings{Strings: keywords},
							},
						},
					},
				},
			},
		},
	}
}

func parsePayload(payload map[string]*pb.Value) *SegmentPayload {
	if payload == nil {
		return nil
	}

	p := &SegmentPayload{}
	if v, ok := payload["video_id"]; ok {
		p.VideoID = v.GetStringValue()
	}
	if v, ok := payload["start_time"]; ok {
		p.StartTime = v.GetDoubleValue()
	}
	if v, ok := payload["end_time"]; ok {
		p.EndTime = v.GetDoubleValue()
	}
	if v, ok := payload["text"]; ok {
		p.Text = v.GetStringValue()
	}
	if v, ok := payload["seq"]; ok {
		p.Seq = v.GetIntegerValue()
	}

	return p
}

// Delete deletes a point by ID.
func (r *QdrantIndex) Delete(ctx context.Context, pointID string) error {
	uid, err := uuid.Parse(pointID)
	if err != nil {
		return fmt.Errorf("invalid point ID: %w", err)
	}

	_, err = r.pointsClient.Delete(ctx, &pb.DeletePoints{
		CollectionName: r.collectionName,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{
					Ids: []*pb.PointId{
						{PointIdOptions: &pb.PointId_Uuid{Uuid: uid.String()}},
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete point: %w", err)
	}

	return nil
}

// DeleteByVideo removes every point belonging to the given video.
func (r *QdrantIndex) DeleteByVideo(ctx context.Context, videoID string) error {
	_, err := r.pointsClient.Delete(ctx, &pb.DeletePoints{
		CollectionName: r.collectionName,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{
				Filter: videoIDFilter([]string{videoID}),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete points for video %s: %w", videoID, err)
	}
	return nil
}
