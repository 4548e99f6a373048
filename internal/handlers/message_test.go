package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fanverse-service/internal/mocks"
	"fanverse-service/internal/models"
	"fanverse-service/internal/repositories"
	"fanverse-service/internal/ws"
)

func setupMessageRouter(handler *MessageHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/messages/:id", handler.List)
	r.POST("/messages", handler.Send)
	r.PUT("/messages/:id", handler.Edit)
	r.DELETE("/messages/:id", handler.Delete)
	return r
}

func newMessageHandlerForTest(convRepo *mocks.ConversationRepositoryMock, msgRepo *mocks.MessageRepositoryMock, userRepo *mocks.UserRepositoryMock) *MessageHandler {
	return NewMessageHandler(convRepo, msgRepo, userRepo, ws.NewHub(), nil)
}

func TestListMessagesPagination(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	handler := newMessageHandlerForTest(convRepo, msgRepo, new(mocks.UserRepositoryMock))
	router := setupMessageRouter(handler)

	convRepo.On("GetConversation", mock.Anything, 5).Return(models.Conversation{ID: 5, User1ID: 1, User2ID: 2}, nil).Once()
	msgRepo.On("ListMessages", mock.Anything, 5, 2, 1).Return([]models.MessageWithSender{
		{Message: models.Message{ID: 11, ConversationID: 5, SenderID: 1, Content: "a"}, SenderName: "Me"},
		{Message: models.Message{ID: 12, ConversationID: 5, SenderID: 2, Content: "b"}, SenderName: "You"},
	}, 4, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/messages/5?limit=2&offset=1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data struct {
			Messages   []models.MessageWithSender `json:"messages"`
			Pagination struct {
				Total   int  `json:"total"`
				Limit   int  `json:"limit"`
				Offset  int  `json:"offset"`
				HasMore bool `json:"hasMore"`
			} `json:"pagination"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Data.Messages, 2)
	assert.Equal(t, 4, resp.Data.Pagination.Total)
	assert.True(t, resp.Data.Pagination.HasMore)
	convRepo.AssertExpectations(t)
	msgRepo.AssertExpectations(t)
}

func TestListMessagesBadPaginationFallsBack(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	handler := newMessageHandlerForTest(convRepo, msgRepo, new(mocks.UserRepositoryMock))
	router := setupMessageRouter(handler)

	convRepo.On("GetConversation", mock.Anything, 5).Return(models.Conversation{ID: 5}, nil).Once()
	msgRepo.On("ListMessages", mock.Anything, 5, 50, 0).Return([]models.MessageWithSender{}, 0, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/messages/5?limit=abc&offset=-3", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	msgRepo.AssertExpectations(t)
}

func TestListMessagesZeroLimitFallsBack(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	handler := newMessageHandlerForTest(convRepo, msgRepo, new(mocks.UserRepositoryMock))
	router := setupMessageRouter(handler)

	convRepo.On("GetConversation", mock.Anything, 5).Return(models.Conversation{ID: 5}, nil).Once()
	msgRepo.On("ListMessages", mock.Anything, 5, 50, 0).Return([]models.MessageWithSender{}, 0, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/messages/5?limit=0", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	msgRepo.AssertExpectations(t)
}

func TestListMessagesConversationMissing(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	handler := newMessageHandlerForTest(convRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock))
	router := setupMessageRouter(handler)

	convRepo.On("GetConversation", mock.Anything, 99).Return(models.Conversation{}, repositories.ErrConversationNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/messages/99", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	convRepo.AssertExpectations(t)
}

func TestSendMessageSuccess(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := newMessageHandlerForTest(convRepo, msgRepo, userRepo)
	router := setupMessageRouter(handler)

	convRepo.On("GetConversation", mock.Anything, 5).Return(models.Conversation{ID: 5, User1ID: 1, User2ID: 2}, nil).Once()
	userRepo.On("GetActiveUser", mock.Anything, 1).Return(models.User{ID: 1, FirstName: "Ada", LastName: "L"}, nil).Once()
	msgRepo.On("CreateMessage", mock.Anything, 5, 1, "hello", "text").Return(models.Message{ID: 7, ConversationID: 5, SenderID: 1, Content: "hello"}, nil).Once()
	convRepo.On("Touch", mock.Anything, 5).Return(nil).Once()

	body := bytes.NewBufferString(`{"conversation_id":5,"sender_id":1,"content":"  hello  ","client_ref":"tmp-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/messages", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Data struct {
			ID        int    `json:"id"`
			Content   string `json:"content"`
			ClientRef string `json:"client_ref"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 7, resp.Data.ID)
	assert.Equal(t, "hello", resp.Data.Content)
	assert.Equal(t, "tmp-1", resp.Data.ClientRef)
	convRepo.AssertExpectations(t)
	msgRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestSendMessageWhitespaceOnly(t *testing.T) {
	handler := newMessageHandlerForTest(new(mocks.ConversationRepositoryMock), new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock))
	router := setupMessageRouter(handler)

	body := bytes.NewBufferString(`{"conversation_id":5,"sender_id":1,"content":"   "}`)
	req := httptest.NewRequest(http.MethodPost, "/messages", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendMessageTooLong(t *testing.T) {
	handler := newMessageHandlerForTest(new(mocks.ConversationRepositoryMock), new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock))
	router := setupMessageRouter(handler)

	long := strings.Repeat("x", models.MaxMessageLength+1)
	payload, err := json.Marshal(map[string]any{"conversation_id": 5, "sender_id": 1, "content": long})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendMessageExactLimitAccepted(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := newMessageHandlerForTest(convRepo, msgRepo, userRepo)
	router := setupMessageRouter(handler)

	exact := strings.Repeat("x", models.MaxMessageLength)
	convRepo.On("GetConversation", mock.Anything, 5).Return(models.Conversation{ID: 5, User1ID: 1, User2ID: 2}, nil).Once()
	userRepo.On("GetActiveUser", mock.Anything, 1).Return(models.User{ID: 1}, nil).Once()
	msgRepo.On("CreateMessage", mock.Anything, 5, 1, exact, "text").Return(models.Message{ID: 7, ConversationID: 5, SenderID: 1}, nil).Once()
	convRepo.On("Touch", mock.Anything, 5).Return(nil).Once()

	payload, err := json.Marshal(map[string]any{"conversation_id": 5, "sender_id": 1, "content": exact})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	msgRepo.AssertExpectations(t)
}

func TestSendMessageNonParticipant(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	handler := newMessageHandlerForTest(convRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock))
	router := setupMessageRouter(handler)

	convRepo.On("GetConversation", mock.Anything, 5).Return(models.Conversation{ID: 5, User1ID: 1, User2ID: 2}, nil).Once()

	body := bytes.NewBufferString(`{"conversation_id":5,"sender_id":3,"content":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/messages", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	convRepo.AssertExpectations(t)
}

func TestSendMessageInactiveSender(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := newMessageHandlerForTest(convRepo, new(mocks.MessageRepositoryMock), userRepo)
	router := setupMessageRouter(handler)

	convRepo.On("GetConversation", mock.Anything, 5).Return(models.Conversation{ID: 5, User1ID: 1, User2ID: 2}, nil).Once()
	userRepo.On("GetActiveUser", mock.Anything, 2).Return(models.User{}, repositories.ErrUserNotFound).Once()

	body := bytes.NewBufferString(`{"conversation_id":5,"sender_id":2,"content":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/messages", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestEditMessageSuccess(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	handler := newMessageHandlerForTest(new(mocks.ConversationRepositoryMock), msgRepo, new(mocks.UserRepositoryMock))
	router := setupMessageRouter(handler)

	msgRepo.On("UpdateMessage", mock.Anything, 7, 1, "edited").Return(models.MessageWithSender{
		Message: models.Message{ID: 7, ConversationID: 5, SenderID: 1, Content: "edited", IsEdited: true},
	}, nil).Once()

	body := bytes.NewBufferString(`{"content":"edited","sender_id":1,"client_ref":"tmp-9"}`)
	req := httptest.NewRequest(http.MethodPut, "/messages/7", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data struct {
			models.MessageWithSender
			ClientRef string `json:"client_ref"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Data.IsEdited)
	assert.Equal(t, "edited", resp.Data.Content)
	assert.Equal(t, "tmp-9", resp.Data.ClientRef)
	msgRepo.AssertExpectations(t)
}

func TestEditMessageNotOwnedLooksLikeMissing(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	handler := newMessageHandlerForTest(new(mocks.ConversationRepositoryMock), msgRepo, new(mocks.UserRepositoryMock))
	router := setupMessageRouter(handler)

	msgRepo.On("UpdateMessage", mock.Anything, 7, 2, "nope").Return(models.MessageWithSender{}, repositories.ErrMessageNotFound).Once()

	body := bytes.NewBufferString(`{"content":"nope","sender_id":2}`)
	req := httptest.NewRequest(http.MethodPut, "/messages/7", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Message not found or you do not have permission to edit it", resp["error"])
	msgRepo.AssertExpectations(t)
}

func TestDeleteMessageSuccess(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	handler := newMessageHandlerForTest(new(mocks.ConversationRepositoryMock), msgRepo, new(mocks.UserRepositoryMock))
	router := setupMessageRouter(handler)

	msgRepo.On("DeleteMessage", mock.Anything, 7, 1).Return(models.Message{ID: 7, ConversationID: 5, SenderID: 1}, nil).Once()

	body := bytes.NewBufferString(`{"sender_id":1,"client_ref":"tmp-10"}`)
	req := httptest.NewRequest(http.MethodDelete, "/messages/7", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "tmp-10", resp["client_ref"])
	msgRepo.AssertExpectations(t)
}

func TestDeleteMessageNotOwnedLooksLikeMissing(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	handler := newMessageHandlerForTest(new(mocks.ConversationRepositoryMock), msgRepo, new(mocks.UserRepositoryMock))
	router := setupMessageRouter(handler)

	msgRepo.On("DeleteMessage", mock.Anything, 7, 2).Return(models.Message{}, repositories.ErrMessageNotFound).Once()

	body := bytes.NewBufferString(`{"sender_id":2}`)
	req := httptest.NewRequest(http.MethodDelete, "/messages/7", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	msgRepo.AssertExpectations(t)
}

func TestDeleteMessageInvalidID(t *testing.T) {
	handler := newMessageHandlerForTest(new(mocks.ConversationRepositoryMock), new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock))
	router := setupMessageRouter(handler)

	req := httptest.NewRequest(http.MethodDelete, "/messages/abc", bytes.NewBufferString(`{"sender_id":1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
