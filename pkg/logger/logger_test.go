package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestJSONLoggerIncludesContextFields(t *testing.T) {
	log, err := NewLogger(&Config{Level: InfoLevel, Format: "json", AppName: "UniCarpool"})
	require.NoError(t, err)

	var buf bytes.Buffer
	log.SetOutput(&buf)

	userID := primitive.NewObjectID()
	ctx := ContextWithUserID(ContextWithRequestID(context.Background(), "req-1"), userID)
	log.WithContext(ctx).WithField("seats", 2).Info("ride created")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "ride created", line["message"])
	assert.Equal(t, "UniCarpool", line["app"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, userID.Hex(), line["user_id"])
	assert.EqualValues(t, 2, line["seats"])
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	parent := NewNop().WithField("a", 1)
	child := parent.WithField("b", 2)

	assert.Len(t, parent.fields, 1)
	assert.Len(t, child.fields, 2)
	assert.Same(t, parent, parent.WithError(nil))
}

func TestTextLoggerSortsFields(t *testing.T) {
	log, err := NewLogger(&Config{Level: DebugLevel, Format: "text"})
	require.NoError(t, err)

	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.WithFields(map[string]interface{}{"z": 1, "a": 2}).Debug("hello")

	out := buf.String()
	assert.Contains(t, out, "[DEBUG] hello a=2 z=1")
}

func TestFormattersRedactSecretsAndLeadWithCorrelationIDs(t *testing.T) {
	jsonLog, err := NewLogger(&Config{Level: InfoLevel, Format: "json"})
	require.NoError(t, err)
	var jsonBuf bytes.Buffer
	jsonLog.SetOutput(&jsonBuf)
	jsonLog.WithFields(map[string]interface{}{"password": "hunter22", "banner_id": "B00123456"}).Info("login")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &line))
	assert.Equal(t, "[REDACTED]", line["password"])
	assert.Equal(t, "B00123456", line["banner_id"])

	textLog, err := NewLogger(&Config{Level: InfoLevel, Format: "text"})
	require.NoError(t, err)
	var textBuf bytes.Buffer
	textLog.SetOutput(&textBuf)
	textLog.WithFields(map[string]interface{}{"ride_id": "r1", "a": 1, "code": "123456"}).Info("accepted")

	assert.Contains(t, textBuf.String(), "accepted ride_id=r1 a=1 code=[REDACTED]")
}
