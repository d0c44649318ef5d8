package a2a

import (
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcore"
	"github.com/aws/smithy-go"
)

// RuntimeClient invokes managed agent runtimes through the Bedrock
// AgentCore data plane. It satisfies RuntimeInvoker.
type RuntimeClient struct {
	api *bedrockagentcore.Client
}

func NewRuntimeClient(ctx context.Context) (*RuntimeClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return &RuntimeClient{api: bedrockagentcore.NewFromConfig(cfg)}, nil
}

func NewRuntimeClientFromConfig(cfg aws.Config) *RuntimeClient {
	return &RuntimeClient{api: bedrockagentcore.NewFromConfig(cfg)}
}

func (c *RuntimeClient) Invoke(ctx context.Context, runtimeARN string, payload []byte) ([]byte, error) {
	out, err := c.api.InvokeAgentRuntime(ctx, &bedrockagentcore.InvokeAgentRuntimeInput{
		AgentRuntimeArn: aws.String(runtimeARN),
		ContentType:     aws.String("application/json"),
		Payload:         payload,
	})
	if err != nil {
		return nil, err
	}
	defer out.Response.Close()
	return io.ReadAll(out.Response)
}

// classifyRuntimeError maps an AWS SDK error to a failure kind using the
// service error code carried by the smithy API error.
func classifyRuntimeError(err error) FailureKind {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "TooManyRequestsException":
			return FailureThrottled
		case "ServiceUnavailableException", "InternalServerException", "ServiceException":
			return FailureUnavailable
		case "RequestTimeout", "RequestTimeoutException":
			return FailureTimeout
		default:
			return FailureProtocol
		}
	}
	return classifyDialError(err)
}
