package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/shamank/discovery-sdk-go/pkg/auth"
	"github.com/shamank/discovery-sdk-go/pkg/client"
	"github.com/shamank/discovery-sdk-go/pkg/config"
	"github.com/shamank/discovery-sdk-go/pkg/discovery"
	"github.com/shamank/discovery-sdk-go/pkg/model"
	"github.com/shamank/discovery-sdk-go/pkg/request"
	"github.com/shamank/discovery-sdk-go/pkg/storage"
	"github.com/shamank/discovery-sdk-go/pkg/transport/grpc"
	"github.com/shamank/discovery-sdk-go/pkg/transport/rest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrClosed is returned by operations on a closed Core.
var ErrClosed = errors.New("sdk is closed")

// DiscoverySDK is the public interface for building API clients from
// metadata documents and running their requests.
type DiscoverySDK interface {
	// NewClient loads {api}/{version} from the discovery service and builds
	// a client for it.
	NewClient(ctx context.Context, api, version string) (*client.Client, error)

	// NewClientFromFile builds a client from a document on disk.
	NewClientFromFile(path string) (*client.Client, error)

	// NewClientFromIPFS builds a client from a document published to IPFS or
	// a gateway.
	NewClientFromIPFS(ctx context.Context, ref string) (*client.Client, error)

	// NewClientFromProto compiles protoFiles and builds a client whose
	// requests run as gRPC calls against endpoint.
	NewClientFromProto(ctx context.Context, endpoint string, protoFiles map[string]string) (*client.Client, error)

	// Execute runs r with the transport matching its document.
	Execute(ctx context.Context, r *request.Request, out any) (*request.Response, error)

	// Close releases resources associated with the SDK instance.
	Close()
}

var (
	_ DiscoverySDK     = (*Core)(nil)
	_ request.Executor = (*Core)(nil)
)

// init configures a default global zap logger for the SDK. Applications may
// replace it with zap.ReplaceGlobals(...) if they need custom logging.
func init() {
	zap.ReplaceGlobals(newLogger(zapcore.InfoLevel))
}

func newLogger(level zapcore.Level) *zap.Logger {
	c := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := c.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

// Core is the concrete SDK implementation. It shares one document loader,
// storage client and REST executor between all clients it creates.
type Core struct {
	*config.Config

	loader  *discovery.Loader
	storage *storage.Client
	rest    *rest.Executor

	mu        sync.Mutex
	grpcExecs map[*model.APIMetadata]*grpc.Executor
	conns     []io.Closer
	closed    bool
}

// New validates cfg, applies timeout defaults and wires the loader, storage
// and REST executor. cfg is modified in place.
func New(cfg *config.Config) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Timeouts = cfg.Timeouts.WithDefaults()

	if cfg.Debug {
		zap.ReplaceGlobals(newLogger(zapcore.DebugLevel))
	}

	storageClient, err := storage.NewStorage(cfg.IpfsURL, cfg.GatewayURL, cfg.Timeouts.Fetch)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	ttl := cfg.CacheTTL
	if ttl < 0 {
		ttl = 0
	}
	loaderOpts := []discovery.LoaderOption{
		discovery.WithStorage(storageClient),
		discovery.WithTTL(ttl),
		discovery.WithFetchTimeout(cfg.Timeouts.Fetch),
	}
	if cfg.StrictDocuments {
		loaderOpts = append(loaderOpts, discovery.WithStrict())
	}

	restOpts := []rest.Option{rest.WithRateLimit(cfg.RateLimit, cfg.RateBurst)}
	if cfg.UserAgent != "" {
		restOpts = append(restOpts, rest.WithUserAgent(cfg.UserAgent))
	}

	zap.L().Debug("sdk initialised",
		zap.String("discovery", cfg.DiscoveryURL),
		zap.String("ipfs", cfg.IpfsURL),
		zap.Duration("cache_ttl", ttl))

	return &Core{
		Config:    cfg,
		loader:    discovery.NewLoader(cfg.DiscoveryURL, loaderOpts...),
		storage:   storageClient,
		rest:      rest.NewExecutor(restOpts...),
		grpcExecs: make(map[*model.APIMetadata]*grpc.Executor),
	}, nil
}

// MustNew is like New but panics on error.
func MustNew(cfg *config.Config) *Core {
	c, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return c
}

// Loader returns the shared document loader.
func (c *Core) Loader() *discovery.Loader { return c.loader }

// Storage returns the shared storage client.
func (c *Core) Storage() *storage.Client { return c.storage }

// NewClient loads {api}/{version} from the discovery service.
func (c *Core) NewClient(ctx context.Context, api, version string) (*client.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeouts.Fetch)
	defer cancel()

	meta, err := c.loader.Load(ctx, api, version)
	if err != nil {
		return nil, err
	}
	return c.newClient(meta)
}

// NewClientFromFile builds a client from a document on disk.
func (c *Core) NewClientFromFile(path string) (*client.Client, error) {
	meta, err := c.loader.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return c.newClient(meta)
}

// NewClientFromIPFS builds a client from an ipfs://, gateway:// or
// filecoin:// reference, or a bare CID.
func (c *Core) NewClientFromIPFS(ctx context.Context, ref string) (*client.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeouts.Fetch)
	defer cancel()

	meta, err := c.loader.LoadIPFS(ctx, ref)
	if err != nil {
		return nil, err
	}
	return c.newClient(meta)
}

// NewClientFromMetadata builds a client around a document the caller
// already holds.
func (c *Core) NewClientFromMetadata(meta *model.APIMetadata) (*client.Client, error) {
	return c.newClient(meta)
}

// NewClientFromProto compiles protoFiles, connects to endpoint and returns
// a client whose requests Execute sends over gRPC. The connection waits up
// to Timeouts.Dial for readiness and lives until Close.
func (c *Core) NewClientFromProto(ctx context.Context, endpoint string, protoFiles map[string]string) (*client.Client, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	files, err := discovery.CompileProto(ctx, protoFiles)
	if err != nil {
		return nil, err
	}
	conn, err := grpc.DialEndpoint(ctx, endpoint, c.Timeouts.Dial)
	if err != nil {
		return nil, err
	}
	exec := grpc.NewExecutorWithConn(conn, files, grpc.WithRateLimit(c.RateLimit, c.RateBurst))
	cl, err := c.bindGRPC(exec, conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return cl, nil
}

// NewClientFromProtoBundle reads a tar or tar.gz bundle of .proto files
// from storage and behaves like NewClientFromProto.
func (c *Core) NewClientFromProtoBundle(ctx context.Context, endpoint, ref string) (*client.Client, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.Timeouts.Fetch)
	defer cancel()

	archive, err := c.storage.ReadFile(fetchCtx, ref)
	if err != nil {
		return nil, fmt.Errorf("read proto bundle: %w", err)
	}
	files, err := storage.ParseProtoFiles(archive)
	if err != nil {
		return nil, err
	}
	return c.NewClientFromProto(ctx, endpoint, files)
}

// bindGRPC builds a client for the services exec knows about and routes
// its requests to exec. A non-nil conn is registered for Close in the same
// critical section that checks the Core is still open.
func (c *Core) bindGRPC(exec *grpc.Executor, conn io.Closer) (*client.Client, error) {
	meta := discovery.FromDescriptors(exec.Files())
	cl, err := c.newClient(meta)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	c.grpcExecs[meta] = exec
	if conn != nil {
		c.conns = append(c.conns, conn)
	}
	return cl, nil
}

func (c *Core) newClient(meta *model.APIMetadata) (*client.Client, error) {
	opts := []client.Option{client.WithLogger(zap.L().Named("client"))}
	if c.APIKey != "" {
		opts = append(opts, client.WithAuth(auth.APIKey(c.APIKey)))
	}
	if c.StrictNamespace {
		opts = append(opts, client.WithStrictNamespace())
	}
	return client.New(meta, opts...)
}

// executorFor picks the gRPC executor bound to the request's document, or
// the shared REST executor.
func (c *Core) executorFor(r *request.Request) request.Executor {
	c.mu.Lock()
	defer c.mu.Unlock()
	if exec, ok := c.grpcExecs[r.Metadata()]; ok {
		return exec
	}
	return c.rest
}

// Do implements request.Executor by dispatching on the request's document.
func (c *Core) Do(ctx context.Context, r *request.Request) (*request.Response, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	return c.executorFor(r).Do(ctx, r)
}

// Execute runs r within the request timeout and decodes the body into out
// when out is non-nil.
func (c *Core) Execute(ctx context.Context, r *request.Request, out any) (*request.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeouts.Request)
	defer cancel()
	return r.Execute(ctx, c, out)
}

// ExecuteBatch runs the requests with at most BatchLimit in flight. Results
// keep the order of reqs.
func (c *Core) ExecuteBatch(ctx context.Context, reqs ...*request.Request) []request.Result {
	ctx, cancel := context.WithTimeout(ctx, c.Timeouts.Batch)
	defer cancel()

	perRequest := request.ExecutorFunc(func(ctx context.Context, r *request.Request) (*request.Response, error) {
		ctx, cancel := context.WithTimeout(ctx, c.Timeouts.Request)
		defer cancel()
		return c.Do(ctx, r)
	})
	return request.NewBatch(reqs...).Execute(ctx, perRequest, c.BatchLimit)
}

// Directory lists the APIs the discovery service advertises.
func (c *Core) Directory(ctx context.Context) ([]discovery.DirectoryItem, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeouts.Fetch)
	defer cancel()
	return c.loader.Directory(ctx)
}

// Publish uploads meta to IPFS and returns its ipfs:// reference, which
// NewClientFromIPFS accepts.
func (c *Core) Publish(ctx context.Context, meta *model.APIMetadata) (string, error) {
	if meta == nil {
		return "", errors.New("metadata is nil")
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeouts.Fetch)
	defer cancel()

	uri, err := c.storage.Upload(ctx, data)
	if err != nil {
		return "", fmt.Errorf("failed to upload metadata to IPFS: %w", err)
	}
	zap.L().Debug("metadata published", zap.String("api", meta.Name), zap.String("uri", uri))
	return uri, nil
}

func (c *Core) checkOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

// BindGRPC routes requests of a client built from exec's descriptors to
// exec. The caller keeps ownership of exec's connection.
func (c *Core) BindGRPC(exec *grpc.Executor) (*client.Client, error) {
	return c.bindGRPC(exec, nil)
}

// Close shuts down gRPC connections opened by NewClientFromProto. Further
// operations return ErrClosed.
func (c *Core) Close() {
	c.mu.Lock()
	conns := c.conns
	c.conns = nil
	c.grpcExecs = make(map[*model.APIMetadata]*grpc.Executor)
	c.closed = true
	c.mu.Unlock()

	for _, conn := range conns {
		if err := conn.Close(); err != nil {
			zap.L().Warn("close grpc connection", zap.Error(err))
		}
	}
}
