package handler

import (
	"github.com/gofiber/fiber/v3"

	"movie-discovery-match-service/internal/models"
	"movie-discovery-match-service/internal/service"
)

type MatchHandler struct {
	swipes   *service.SwipeService
	detector *service.MatchDetector
}

func NewMatchHandler(swipes *service.SwipeService, detector *service.MatchDetector) *MatchHandler {
	return &MatchHandler{swipes: swipes, detector: detector}
}

// Register mounts the match routes on r.
func (h *MatchHandler) Register(r fiber.Router) {
	r.Post("/users/:id/matches/check", h.CheckMatch)
	r.Get("/users/:id/matches", h.GetMatches)
	r.Get("/users/:id/friends", h.GetFriends)
}

// CheckMatch runs match detection for a title already on the user's
// watchlist. It answers 201 when a match was created and 200 otherwise.
func (h *MatchHandler) CheckMatch(c fiber.Ctx) error {
	var req models.CheckMatchRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, "check match", err)
	}

	match, err := h.swipes.CheckMatch(c.Context(), c.Params("id"), req.FriendIDs, req.TitleID, req.TitleType)
	if err != nil {
		return writeError(c, "check match", err)
	}
	if match == nil {
		return c.JSON(fiber.Map{"matched": false, "match": nil})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"matched": true, "match": match})
}

// GetMatches lists the user's matches, newest first.
func (h *MatchHandler) GetMatches(c fiber.Ctx) error {
	userID := c.Params("id")
	limit := fiber.Query(c, "limit", 50)

	matches, err := h.detector.Matches(c.Context(), userID, limit)
	if err != nil {
		return writeError(c, "get matches", err)
	}
	return c.JSON(fiber.Map{
		"user_id": userID,
		"matches": matches,
	})
}

// GetFriends returns the user's friend ids.
func (h *MatchHandler) GetFriends(c fiber.Ctx) error {
	userID := c.Params("id")

	friends, err := h.swipes.Friends(c.Context(), userID)
	if err != nil {
		return writeError(c, "get friends", err)
	}
	return c.JSON(fiber.Map{
		"user_id":    userID,
		"friend_ids": friends,
	})
}
