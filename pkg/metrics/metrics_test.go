package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerExportsChatCounters(t *testing.T) {
	Setup("portfolio-chat", "api")
	MessageSent("VISITOR")
	RoomCreated()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `portfolio_chat_api_messages_sent_total{sender_type="VISITOR"} 1`)
	assert.Contains(t, rec.Body.String(), "portfolio_chat_api_rooms_created_total 1")
}
