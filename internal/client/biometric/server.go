package biometric

import (
	"context"
	"net"

	"github.com/dmitrijs2005/authflow/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// agentService is the handler type of the biometric.v1.Agent service.
type agentService interface {
	authenticate(ctx context.Context, reason string) error
}

var agentServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*agentService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Authenticate", Handler: authenticateHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func authenticateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}

	handler := func(ctx context.Context, req any) (any, error) {
		if err := srv.(agentService).authenticate(ctx, req.(*wrapperspb.StringValue).GetValue()); err != nil {
			return nil, err
		}
		return &emptypb.Empty{}, nil
	}

	if interceptor == nil {
		return handler(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: authenticateMethod}
	return interceptor(ctx, in, info, handler)
}

// AgentServer exposes an Authenticator as the biometric agent.
type AgentServer struct {
	address string
	auth    Authenticator
	logger  logging.Logger
}

func NewAgentServer(address string, auth Authenticator, l logging.Logger) *AgentServer {
	return &AgentServer{
		address: address,
		auth:    auth,
		logger:  l.With("module", "biometric_agent"),
	}
}

func (s *AgentServer) authenticate(ctx context.Context, reason string) error {
	if reason == "" {
		return status.Error(codes.InvalidArgument, "reason is required")
	}
	return toStatus(s.auth.Authenticate(ctx, reason))
}

func (s *AgentServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	s.logger.Info(ctx, "prompt handled", "method", info.FullMethod, "code", status.Code(err).String())
	return resp, err
}

// Run listens on the configured address and serves until ctx ends.
func (s *AgentServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx ends, then stops gracefully.
func (s *AgentServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	srv.RegisterService(&agentServiceDesc, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping biometric agent...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting biometric agent", "address", lis.Addr().String())

	return srv.Serve(lis)
}
