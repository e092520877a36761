package messages

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iskomart/iskomart-backend/api/middleware"
	internalmessages "github.com/iskomart/iskomart-backend/internal/messages"
	"github.com/iskomart/iskomart-backend/internal/users"
	"github.com/iskomart/iskomart-backend/pkg/db/models"
	pkgerrors "github.com/iskomart/iskomart-backend/pkg/errors"
)

type stubMessageService struct {
	send        func(ctx context.Context, senderID, receiverID uuid.UUID, text string) (*internalmessages.MessageDTO, error)
	listForUser func(ctx context.Context, userID uuid.UUID) ([]internalmessages.MessageDTO, error)
	listBetween func(ctx context.Context, a, b uuid.UUID) ([]internalmessages.MessageDTO, error)
	findUser    func(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
}

func (s stubMessageService) Notify(context.Context, uuid.UUID, uuid.UUID, string, *uuid.UUID) (*models.Message, error) {
	panic("not used by controllers")
}

func (s stubMessageService) SendMessage(ctx context.Context, senderID, receiverID uuid.UUID, text string) (*internalmessages.MessageDTO, error) {
	return s.send(ctx, senderID, receiverID, text)
}

func (s stubMessageService) ListForUser(ctx context.Context, userID uuid.UUID) ([]internalmessages.MessageDTO, error) {
	return s.listForUser(ctx, userID)
}

func (s stubMessageService) ListBetween(ctx context.Context, a, b uuid.UUID) ([]internalmessages.MessageDTO, error) {
	return s.listBetween(ctx, a, b)
}

func (s stubMessageService) FindUser(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	return s.findUser(ctx, userID)
}

func request(method, target, body string, params map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rc := chi.NewRouteContext()
	for k, v := range params {
		rc.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestSendTrimsText(t *testing.T) {
	sender, receiver := uuid.New(), uuid.New()
	var gotText string
	svc := stubMessageService{send: func(_ context.Context, s, r uuid.UUID, text string) (*internalmessages.MessageDTO, error) {
		gotText = text
		return &internalmessages.MessageDTO{ID: uuid.New(), SenderID: s, ReceiverID: r, Text: text, SentAt: time.Now()}, nil
	}}

	body := `{"sender_id":"` + sender.String() + `","receiver_id":"` + receiver.String() + `","text":"  is the lamp still available?  "}`
	resp := httptest.NewRecorder()
	Send(svc, nil).ServeHTTP(resp, request(http.MethodPost, "/text/messages", body, nil))

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, "is the lamp still available?", gotText)
	var payload struct {
		Message internalmessages.MessageDTO `json:"sent_message"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.Equal(t, receiver, payload.Message.ReceiverID)
}

func TestSendRejectsImpersonation(t *testing.T) {
	svc := stubMessageService{send: func(context.Context, uuid.UUID, uuid.UUID, string) (*internalmessages.MessageDTO, error) {
		t.Fatal("service should not be called")
		return nil, nil
	}}
	body := `{"sender_id":"` + uuid.NewString() + `","receiver_id":"` + uuid.NewString() + `","text":"hi"}`
	req := request(http.MethodPost, "/text/messages", body, nil)
	req = req.WithContext(middleware.WithActor(req.Context(), uuid.New()))
	resp := httptest.NewRecorder()
	Send(svc, nil).ServeHTTP(resp, req)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestHistoryEndpoints(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	svc := stubMessageService{
		listForUser: func(context.Context, uuid.UUID) ([]internalmessages.MessageDTO, error) {
			return []internalmessages.MessageDTO{}, nil
		},
		listBetween: func(_ context.Context, x, y uuid.UUID) ([]internalmessages.MessageDTO, error) {
			return []internalmessages.MessageDTO{{ID: uuid.New(), SenderID: x, ReceiverID: y, Text: "hello"}}, nil
		},
	}

	resp := httptest.NewRecorder()
	ListForUser(svc, nil).ServeHTTP(resp, request(http.MethodGet, "/text/messages/x", "", map[string]string{"user_id": a.String()}))
	require.Equal(t, http.StatusOK, resp.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, []any{}, body["messages"])

	resp = httptest.NewRecorder()
	ListBetween(svc, nil).ServeHTTP(resp, request(http.MethodGet, "/text/messages/between", "", map[string]string{"user1_id": a.String(), "user2_id": b.String()}))
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Len(t, body["messages"], 1)
}

func TestUserLookup(t *testing.T) {
	id := uuid.New()
	svc := stubMessageService{findUser: func(_ context.Context, userID uuid.UUID) (*users.UserDTO, error) {
		if userID != id {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return &users.UserDTO{ID: id, Username: "juan", DisplayName: "Juan Cruz"}, nil
	}}

	resp := httptest.NewRecorder()
	User(svc, nil).ServeHTTP(resp, request(http.MethodGet, "/text/messages/user/x", "", map[string]string{"user_id": id.String()}))
	require.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		User users.UserDTO `json:"user"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "Juan Cruz", body.User.DisplayName)

	resp = httptest.NewRecorder()
	User(svc, nil).ServeHTTP(resp, request(http.MethodGet, "/text/messages/user/x", "", map[string]string{"user_id": uuid.NewString()}))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
