package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"movie-discovery-match-service/internal/models"
	"movie-discovery-match-service/internal/service"
)

// CatalogBrowser is the part of the catalog client exposed for browsing.
type CatalogBrowser interface {
	Search(ctx context.Context, t models.TitleType, query string, page int) (*models.CatalogPage, error)
	Genres(ctx context.Context, t models.TitleType) ([]models.Genre, error)
}

type DeckHandler struct {
	deck    *service.DeckService
	titles  *service.TitleService
	catalog CatalogBrowser
}

func NewDeckHandler(deck *service.DeckService, titles *service.TitleService, catalog CatalogBrowser) *DeckHandler {
	return &DeckHandler{deck: deck, titles: titles, catalog: catalog}
}

// Register mounts the deck and catalog routes on r.
func (h *DeckHandler) Register(r fiber.Router) {
	r.Get("/users/:id/deck", h.GetDeck)
	r.Get("/catalog/search", h.Search)
	r.Get("/catalog/genres", h.Genres)
	r.Get("/catalog/:type/:titleId", h.GetTitle)
}

// GetDeck returns the next page of titles the user has not acted on.
func (h *DeckHandler) GetDeck(c fiber.Ctx) error {
	q := models.CatalogQuery{
		Type:    models.TitleType(c.Query("type")),
		Page:    fiber.Query(c, "page", 1),
		GenreID: fiber.Query(c, "genre_id", 0),
	}

	deck, err := h.deck.NextDeck(c.Context(), c.Params("id"), q)
	if err != nil {
		return writeError(c, "get deck", err)
	}
	return c.JSON(deck)
}

// Search looks titles up by name.
func (h *DeckHandler) Search(c fiber.Ctx) error {
	titleType, err := queryTitleType(c)
	if err != nil {
		return writeError(c, "search catalog", err)
	}
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "query is required"})
	}

	page, err := h.catalog.Search(c.Context(), titleType, query, fiber.Query(c, "page", 1))
	if err != nil {
		return writeError(c, "search catalog", &service.CatalogError{Err: err})
	}
	return c.JSON(page)
}

// Genres returns the genre list for a title type.
func (h *DeckHandler) Genres(c fiber.Ctx) error {
	titleType, err := queryTitleType(c)
	if err != nil {
		return writeError(c, "list genres", err)
	}

	genres, err := h.catalog.Genres(c.Context(), titleType)
	if err != nil {
		return writeError(c, "list genres", &service.CatalogError{Err: err})
	}
	return c.JSON(fiber.Map{
		"type":   titleType,
		"genres": genres,
	})
}

// GetTitle returns the details of a single title.
func (h *DeckHandler) GetTitle(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("titleId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "title id must be an integer"})
	}

	title, err := h.titles.Details(c.Context(), models.TitleType(c.Params("type")), id)
	if err != nil {
		return writeError(c, "get title", err)
	}
	return c.JSON(title)
}

// queryTitleType reads the type query parameter, defaulting to movie.
func queryTitleType(c fiber.Ctx) (models.TitleType, error) {
	raw := c.Query("type", string(models.TitleTypeMovie))
	t, ok := models.ParseTitleType(raw)
	if !ok {
		return "", fiber.NewError(fiber.StatusBadRequest, "type must be one of [movie tv]")
	}
	return t, nil
}
