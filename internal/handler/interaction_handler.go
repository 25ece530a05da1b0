package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"movie-discovery-match-service/internal/models"
	"movie-discovery-match-service/internal/service"
)

type InteractionHandler struct {
	svc    *service.InteractionService
	swipes *service.SwipeService
}

func NewInteractionHandler(svc *service.InteractionService, swipes *service.SwipeService) *InteractionHandler {
	return &InteractionHandler{svc: svc, swipes: swipes}
}

// Register mounts the interaction routes on r.
func (h *InteractionHandler) Register(r fiber.Router) {
	r.Post("/users/:id/swipes", h.Swipe)
	r.Post("/users/:id/interactions", h.RecordInteraction)
	r.Get("/users/:id/interactions", h.GetInteractions)
	r.Get("/users/:id/interacted-ids", h.GetInteractedIDs)
	r.Get("/users/:id/watchlist", h.GetWatchlist)
	r.Delete("/users/:id/watchlist/:type/:titleId", h.RemoveFromWatchlist)
}

// Swipe records a resolved swipe and runs match detection.
func (h *InteractionHandler) Swipe(c fiber.Ctx) error {
	var req models.RecordInteractionRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, "swipe", err)
	}

	res, err := h.swipes.Swipe(c.Context(), c.Params("id"), req.TitleID, req.TitleType, req.Action)
	if err != nil {
		return writeError(c, "swipe", err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// RecordInteraction records a decision without running match detection.
func (h *InteractionHandler) RecordInteraction(c fiber.Ctx) error {
	var req models.RecordInteractionRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, "record interaction", err)
	}

	userID := c.Params("id")
	if err := h.svc.Record(c.Context(), userID, req.TitleID, req.TitleType, req.Action); err != nil {
		return writeError(c, "record interaction", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user_id":    userID,
		"title_id":   req.TitleID,
		"title_type": req.TitleType,
		"action":     req.Action,
	})
}

// GetInteractions returns user interactions.
func (h *InteractionHandler) GetInteractions(c fiber.Ctx) error {
	userID := c.Params("id")
	limit := fiber.Query(c, "limit", 50)

	interactions, err := h.svc.Interactions(c.Context(), userID, limit)
	if err != nil {
		return writeError(c, "get interactions", err)
	}
	return c.JSON(fiber.Map{
		"user_id":      userID,
		"interactions": interactions,
	})
}

// GetInteractedIDs returns the ids of titles the user already acted on.
func (h *InteractionHandler) GetInteractedIDs(c fiber.Ctx) error {
	userID := c.Params("id")
	titleType := models.TitleType(c.Query("type"))

	ids, err := h.svc.InteractedIDs(c.Context(), userID, titleType)
	if err != nil {
		return writeError(c, "get interacted ids", err)
	}
	return c.JSON(fiber.Map{
		"user_id":   userID,
		"type":      titleType,
		"title_ids": ids,
	})
}

// GetWatchlist returns the user's watchlist.
func (h *InteractionHandler) GetWatchlist(c fiber.Ctx) error {
	userID := c.Params("id")

	entries, err := h.svc.Watchlist(c.Context(), userID)
	if err != nil {
		return writeError(c, "get watchlist", err)
	}
	return c.JSON(fiber.Map{
		"user_id":   userID,
		"watchlist": entries,
	})
}

// RemoveFromWatchlist deletes one watchlist entry.
func (h *InteractionHandler) RemoveFromWatchlist(c fiber.Ctx) error {
	titleType, ok := models.ParseTitleType(c.Params("type"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid title type"})
	}
	titleID, err := strconv.Atoi(c.Params("titleId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid title ID"})
	}

	if err := h.svc.RemoveFromWatchlist(c.Context(), c.Params("id"), titleID, titleType); err != nil {
		return writeError(c, "remove from watchlist", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
