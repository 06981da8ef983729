package sms

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPublishInputCarriesMessage(t *testing.T) {
	input := buildPublishInput(&SMSRequest{To: "+19025550199", Message: "SOS from rider", Type: "emergency"})

	assert.Equal(t, "+19025550199", aws.ToString(input.PhoneNumber))
	assert.Equal(t, "SOS from rider", aws.ToString(input.Message))
	assert.Equal(t, "Transactional", aws.ToString(input.MessageAttributes["AWS.SNS.SMS.SMSType"].StringValue))
}

type flakyProvider struct{ fail map[string]bool }

func (f *flakyProvider) SendSMS(_ context.Context, req *SMSRequest) (*SMSResponse, error) {
	if f.fail[req.To] {
		return nil, errors.New("carrier rejected")
	}
	return &SMSResponse{MessageID: "m-" + req.To, To: req.To, Status: "sent"}, nil
}

func (f *flakyProvider) SendBulkSMS(ctx context.Context, reqs []*SMSRequest) ([]*SMSResponse, error) {
	return sendEach(ctx, f, reqs), nil
}

func TestSendEachKeepsGoingAfterFailure(t *testing.T) {
	p := &flakyProvider{fail: map[string]bool{"+1": true}}

	responses, err := p.SendBulkSMS(context.Background(), []*SMSRequest{{To: "+1"}, {To: "+2"}})
	require.NoError(t, err)
	require.Len(t, responses, 2)
	assert.Equal(t, "failed", responses[0].Status)
	assert.Equal(t, "carrier rejected", responses[0].Error)
	assert.Equal(t, "sent", responses[1].Status)
}
