package commitsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/jcommit/cidutil"
	"xdao.co/jcommit/commit"
	"xdao.co/jcommit/record"
	"xdao.co/jcommit/storage"
)

// ErrRejected is returned when the server rejects a document as invalid.
var ErrRejected = errors.New("commitsvc: document rejected")

// Client calls a Commitments service and re-verifies every record it
// receives.
type Client struct {
	cc     *grpc.ClientConn
	client CommitmentsClient

	// Hash is the CID hash the server's store uses.
	Hash cidutil.Hash
	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

type DialOptions struct {
	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int
	Hash        cidutil.Hash
	Timeout     time.Duration
}

// Dial creates a client for target. The connection is established lazily.
func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}
	cc, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return NewClient(cc, opts), nil
}

// NewClient wraps an existing connection.
func NewClient(cc *grpc.ClientConn, opts DialOptions) *Client {
	h := opts.Hash
	if h == 0 {
		h = cidutil.SHA2_256
	}
	return &Client{cc: cc, client: NewCommitmentsClient(cc), Hash: h, Timeout: opts.Timeout}
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

// Commit submits doc and returns the validated record, its bytes and CID.
func (c *Client) Commit(ctx context.Context, doc []byte) (*record.Record, []byte, cid.Cid, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.Commit(ctx, wrapperspb.Bytes(doc))
	if err != nil {
		return nil, nil, cid.Undef, mapRPC(err)
	}
	b := reply.GetValue()
	rec, err := record.Unmarshal(b)
	if err != nil {
		return nil, nil, cid.Undef, err
	}
	id, err := record.CID(b, c.Hash)
	if err != nil {
		return nil, nil, cid.Undef, err
	}
	return rec, b, id, nil
}

// Get fetches the record stored under id and checks its bytes against id.
func (c *Client) Get(ctx context.Context, id cid.Cid) (*record.Record, []byte, error) {
	if !id.Defined() {
		return nil, nil, storage.ErrInvalidCID
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.Get(ctx, wrapperspb.String(id.String()))
	if err != nil {
		return nil, nil, mapRPC(err)
	}
	b := reply.GetValue()
	if err := cidutil.Verify(id, b); err != nil {
		return nil, nil, storage.ErrCIDMismatch
	}
	rec, err := record.Unmarshal(b)
	if err != nil {
		return nil, nil, err
	}
	return rec, b, nil
}

func (c *Client) Has(ctx context.Context, id cid.Cid) (bool, error) {
	if !id.Defined() {
		return false, nil
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.Has(ctx, wrapperspb.String(id.String()))
	if err != nil {
		return false, mapRPC(err)
	}
	return reply.GetValue(), nil
}

func (c *Client) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.Timeout)
}

func mapRPC(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return storage.ErrNotFound
	case codes.DataLoss:
		return storage.ErrCIDMismatch
	case codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", commit.ErrTimeout, st.Message())
	case codes.InvalidArgument:
		if st.Message() == storage.ErrInvalidCID.Error() {
			return storage.ErrInvalidCID
		}
		return fmt.Errorf("%w: %s", ErrRejected, st.Message())
	default:
		return err
	}
}
