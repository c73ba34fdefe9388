package biometric

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// AgentClient is an Authenticator that delegates the prompt to a local
// biometric agent.
type AgentClient struct {
	cc   grpc.ClientConnInterface
	conn *grpc.ClientConn
}

// DialAgent connects to the agent at addr. The connection is lazy: an
// unreachable agent surfaces as not_available on the first prompt.
func DialAgent(addr string, opts ...grpc.DialOption) (*AgentClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &AgentClient{cc: conn, conn: conn}, nil
}

// NewAgentClient wraps an existing connection; Close leaves it open.
func NewAgentClient(cc grpc.ClientConnInterface) *AgentClient {
	return &AgentClient{cc: cc}
}

func (c *AgentClient) Authenticate(ctx context.Context, reason string) error {
	err := c.cc.Invoke(ctx, authenticateMethod, wrapperspb.String(reason), &emptypb.Empty{})
	return fromStatus(err)
}

func (c *AgentClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
