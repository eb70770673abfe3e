package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/textweave/notifier/pkg/common"
	"github.com/textweave/notifier/pkg/model"
)

type changeRequest struct {
	Action        string            `json:"action" binding:"required"`
	ProjectID     string            `json:"project_id"`
	ComponentID   string            `json:"component_id"`
	TranslationID string            `json:"translation_id"`
	Language      string            `json:"language"`
	ActorID       string            `json:"actor_id"`
	Details       map[string]string `json:"details"`
	Timestamp     time.Time         `json:"timestamp"`
}

func (s *Server) handleIngestChange(c *gin.Context) {
	var request changeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	change := model.Change{
		Action:        request.Action,
		ProjectID:     request.ProjectID,
		ComponentID:   request.ComponentID,
		TranslationID: request.TranslationID,
		Language:      request.Language,
		ActorID:       request.ActorID,
		Details:       request.Details,
		Timestamp:     request.Timestamp,
	}

	// Persist first so digests see the change even when instant dispatch
	// has no recipients.
	change, err := s.changes.AppendChange(c.Request.Context(), change)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result, err := s.dispatcher.OnEvent(c.Request.Context(), change)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"change_id": change.ID,
		"dispatch":  result,
	})
}

func (s *Server) handleRunDigest(c *gin.Context) {
	frequency, ok := model.ParseFrequency(c.Param("frequency"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": common.ErrInvalidDigestFrequency.Error()})
		return
	}
	result, err := s.runner.Run(c.Request.Context(), frequency)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidDigestFrequency):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, common.ErrWatermarkConflict):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "result": result})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

type subscriptionRequest struct {
	UserID       string `json:"user_id" binding:"required"`
	Notification string `json:"notification" binding:"required"`
	Scope        string `json:"scope" binding:"required"`
	Frequency    string `json:"frequency" binding:"required"`
	ProjectID    string `json:"project_id"`
	ComponentID  string `json:"component_id"`
}

type subscriptionResponse struct {
	ID           int64  `json:"id"`
	UserID       string `json:"user_id"`
	Notification string `json:"notification"`
	Scope        string `json:"scope"`
	Frequency    string `json:"frequency"`
	ProjectID    string `json:"project_id,omitempty"`
	ComponentID  string `json:"component_id,omitempty"`
}

func toSubscriptionResponse(subscription model.Subscription) subscriptionResponse {
	return subscriptionResponse{
		ID:           subscription.ID,
		UserID:       subscription.UserID,
		Notification: subscription.Notification,
		Scope:        subscription.Scope.String(),
		Frequency:    subscription.Frequency.String(),
		ProjectID:    subscription.ProjectID,
		ComponentID:  subscription.ComponentID,
	}
}

func (s *Server) handleAddSubscription(c *gin.Context) {
	var request subscriptionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	scope, ok := model.ParseScope(request.Scope)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown scope " + request.Scope})
		return
	}
	frequency, ok := model.ParseFrequency(request.Frequency)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown frequency " + request.Frequency})
		return
	}
	if _, ok := s.registry.Get(request.Notification); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": common.ErrUnknownNotificationType.Error()})
		return
	}

	subscription := model.Subscription{
		UserID:       request.UserID,
		Notification: request.Notification,
		Scope:        scope,
		Frequency:    frequency,
		ProjectID:    request.ProjectID,
		ComponentID:  request.ComponentID,
	}
	if err := subscription.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subscription, err := s.store.AddSubscription(c.Request.Context(), subscription)
	if err != nil {
		if errors.Is(err, common.ErrSubscriptionUniqueConstraintViolation) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, toSubscriptionResponse(subscription))
}

func (s *Server) handleListSubscriptions(c *gin.Context) {
	userID := c.Query("user")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user query parameter is required"})
		return
	}
	subscriptions, err := s.store.GetSubscriptions(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	result := make([]subscriptionResponse, 0, len(subscriptions))
	for _, subscription := range subscriptions {
		result = append(result, toSubscriptionResponse(subscription))
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": result})
}

func (s *Server) handleDeleteSubscription(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}
	if err := s.store.DeleteSubscription(c.Request.Context(), id); err != nil {
		if errors.Is(err, common.ErrSubscriptionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// handleExplain exposes the resolver decision for auditing why a user did or
// did not receive a notification for a hypothetical change.
func (s *Server) handleExplain(c *gin.Context) {
	userID := c.Query("user")
	notification := c.Query("notification")
	if userID == "" || notification == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user and notification query parameters are required"})
		return
	}
	if _, ok := s.registry.Get(notification); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": common.ErrUnknownNotificationType.Error()})
		return
	}
	change := model.Change{
		ProjectID:   c.Query("project"),
		ComponentID: c.Query("component"),
		Language:    c.Query("language"),
	}
	decision, err := s.resolver.Explain(c.Request.Context(), userID, notification, change)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"notification": notification,
		"decision":     decision,
	})
}

type userRequest struct {
	ID       string `json:"id" binding:"required"`
	Email    string `json:"email" binding:"required"`
	FullName string `json:"full_name"`
}

func (s *Server) handleAddUser(c *gin.Context) {
	var request userRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := s.store.AddUser(c.Request.Context(), model.User{
		ID:       request.ID,
		Email:    request.Email,
		FullName: request.FullName,
	})
	if err != nil {
		if errors.Is(err, common.ErrUserUniqueConstraintViolation) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusCreated)
}

func (s *Server) handleAddWatch(c *gin.Context) {
	s.relationUpdate(c, s.store.AddWatch)
}

func (s *Server) handleRemoveWatch(c *gin.Context) {
	s.relationUpdate(c, s.store.RemoveWatch)
}

func (s *Server) handleAddAdmin(c *gin.Context) {
	s.relationUpdate(c, s.store.AddAdmin)
}

func (s *Server) handleRemoveAdmin(c *gin.Context) {
	s.relationUpdate(c, s.store.RemoveAdmin)
}

func (s *Server) relationUpdate(c *gin.Context, update func(ctx context.Context, userID string, projectID string) error) {
	if err := update(c.Request.Context(), c.Param("id"), c.Param("project")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type languagesRequest struct {
	Languages []string `json:"languages"`
}

func (s *Server) handleSetLanguages(c *gin.Context) {
	var request languagesRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.store.SetLanguages(c.Request.Context(), c.Param("id"), request.Languages); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
