package handlers

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/gartstein/census/internal/census/auth"
	e "github.com/gartstein/census/internal/census/errors"
	"github.com/gartstein/census/internal/census/models"
	"github.com/gartstein/census/internal/census/reconcile"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const testSecret = "test-secret"

// startServer serves mock over an in-memory gRPC listener and a loopback
// HTTP listener, and returns a connected client.
func startServer(t *testing.T, mock CensusController) (*grpc.ClientConn, *Server) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	s := NewServer(0, 0, logger, grpc.UnaryInterceptor(auth.NewAuthInterceptor(testSecret).Unary()))
	h := NewCensusHandler(mock, logger)
	s.RegisterGRPCHandler(h)
	require.NoError(t, s.RegisterHTTPGateway(h, prometheus.NewRegistry(), testSecret))

	grpcLis := bufconn.Listen(1 << 20)
	httpLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(grpcLis, httpLis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return grpcLis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(CallOption()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		s.Stop()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
	return conn, s
}

func withToken(t *testing.T, ctx context.Context, role models.Role) context.Context {
	t.Helper()
	token, err := auth.GenerateToken("staff-1", role, testSecret)
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
}

func TestServer_GRPCRoundTrip(t *testing.T) {
	ce := sampleEmployee()
	mock := &mockCensusController{
		getFunc: func(_ context.Context, id uuid.UUID) (*models.CensusEmployee, error) {
			if id != ce.ID {
				return nil, e.ErrNotFound
			}
			return ce, nil
		},
		terminateFunc: func(_ context.Context, _ uuid.UUID, date time.Time) (*models.CensusEmployee, *reconcile.Result, error) {
			ce.State = models.StateEmploymentTerminated
			ce.EmploymentTerminatedOn = &date
			return ce, &reconcile.Result{CoverageTerminatedOn: date}, nil
		},
	}
	conn, _ := startServer(t, mock)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.Run("open method without token", func(t *testing.T) {
		out := &CensusEmployeeResponse{}
		err := conn.Invoke(ctx, auth.ServicePrefix+"GetCensusEmployee", &CensusEmployeeRequest{ID: ce.ID.String()}, out)
		require.NoError(t, err)
		assert.Equal(t, ce.ID.String(), out.CensusEmployee.ID)
		assert.Equal(t, "Jane", out.CensusEmployee.FirstName)
	})

	t.Run("domain errors become status codes", func(t *testing.T) {
		err := conn.Invoke(ctx, auth.ServicePrefix+"GetCensusEmployee", &CensusEmployeeRequest{ID: uuid.NewString()}, &CensusEmployeeResponse{})
		assert.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("protected method requires a token", func(t *testing.T) {
		err := conn.Invoke(ctx, auth.ServicePrefix+"TerminateEmployment", &DatedRequest{ID: ce.ID.String(), Date: "2025-03-10"}, &TerminateEmploymentResponse{})
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("protected method with token", func(t *testing.T) {
		out := &TerminateEmploymentResponse{}
		err := conn.Invoke(withToken(t, ctx, models.RoleEmployer), auth.ServicePrefix+"TerminateEmployment",
			&DatedRequest{ID: ce.ID.String(), Date: "2025-03-10"}, out)
		require.NoError(t, err)
		assert.Equal(t, "employment_terminated", out.CensusEmployee.State)
		assert.Equal(t, "2025-03-10", out.CoverageTerminatedOn)
	})

	t.Run("unknown method", func(t *testing.T) {
		err := conn.Invoke(ctx, auth.ServicePrefix+"DeleteEverything", &CensusEmployeeRequest{}, &CensusEmployeeResponse{})
		assert.Equal(t, codes.Unimplemented, status.Code(err))
	})
}

func TestServer_Health(t *testing.T) {
	conn, s := startServer(t, &mockCensusController{})
	client := healthpb.NewHealthClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// The health service speaks protobuf, not the census codec.
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName}, grpc.CallContentSubtype("proto"))
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName}, grpc.CallContentSubtype("proto"))
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}

func TestServiceDesc(t *testing.T) {
	names := map[string]bool{}
	for _, m := range CensusServiceDesc.Methods {
		assert.False(t, names[m.MethodName], "duplicate method %s", m.MethodName)
		names[m.MethodName] = true
	}
	assert.Len(t, names, 19)
	assert.Equal(t, "/census.v1.CensusService/", auth.ServicePrefix)
}
