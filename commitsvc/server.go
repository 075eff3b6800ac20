package commitsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ipfs/go-cid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/jcommit/commit"
	"xdao.co/jcommit/document"
	"xdao.co/jcommit/pipeline"
	"xdao.co/jcommit/storage"
)

// Server exposes a pipeline over the Commitments service.
//
// Get and Has need Pipeline.Store; without it they fail with
// FailedPrecondition.
type Server struct {
	UnimplementedCommitmentsServer

	Pipeline *pipeline.Pipeline
	// Format is the syntax of submitted documents.
	Format pipeline.Format
	// MaxDocBytes rejects larger documents when non-zero.
	MaxDocBytes int
	Logger      *slog.Logger
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Server) Commit(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Pipeline == nil || s.Pipeline.Committer == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing pipeline")
	}
	doc := in.GetValue()
	if s.MaxDocBytes > 0 && len(doc) > s.MaxDocBytes {
		return nil, status.Errorf(codes.ResourceExhausted, "document is %d bytes, limit %d", len(doc), s.MaxDocBytes)
	}

	reqID := uuid.NewString()
	log := s.logger().With("request_id", reqID, "method", "Commit")
	start := time.Now()

	res, err := s.Pipeline.CommitText(ctx, doc, s.Format)
	if err != nil {
		log.Warn("commit failed", "err", err, "rule", commit.RuleID(err), "elapsed", time.Since(start))
		return nil, mapErr(err)
	}
	log.Info("commit ok", "cid", res.CID.String(), "leaves", res.Aggregate.LeafCount, "elapsed", time.Since(start))
	return wrapperspb.Bytes(res.RecordBytes), nil
}

func (s *Server) Get(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	id, err := decodeCID(in.GetValue())
	if err != nil {
		return nil, err
	}
	_, b, err := store.Get(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) Has(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	id, err := decodeCID(in.GetValue())
	if err != nil {
		return nil, err
	}
	ok, err := store.Has(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bool(ok), nil
}

func (s *Server) store() (*storage.RecordStore, error) {
	if s == nil || s.Pipeline == nil || s.Pipeline.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "record store not configured")
	}
	return s.Pipeline.Store, nil
}

func decodeCID(v string) (cid.Cid, error) {
	id, err := cid.Decode(v)
	if err != nil || !id.Defined() {
		return cid.Undef, status.Error(codes.InvalidArgument, storage.ErrInvalidCID.Error())
	}
	return id, nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var pe *document.ParseError
	switch {
	case errors.As(err, &pe):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, commit.ErrTimeout):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case commit.IsKind(err, commit.KindCommit), commit.IsKind(err, commit.KindEncoding):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		return status.Error(codes.NotFound, storage.ErrNotFound.Error())
	case errors.Is(err, storage.ErrInvalidCID):
		return status.Error(codes.InvalidArgument, storage.ErrInvalidCID.Error())
	case storage.IsIntegrity(err):
		return status.Error(codes.DataLoss, storage.ErrCIDMismatch.Error())
	default:
		return status.Error(codes.Internal, fmt.Sprintf("internal error: %v", err))
	}
}
