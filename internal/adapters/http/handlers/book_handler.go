package handlers

import (
	"strconv"

	"libraryhub/internal/core/services"
	"libraryhub/internal/pkg/pagination"
	"libraryhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// BookHandler handles catalog endpoints
type BookHandler struct {
	bookService *services.BookService
}

// NewBookHandler creates a new book handler
func NewBookHandler(bookService *services.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// RestockRequest represents restock request body
type RestockRequest struct {
	Delta int `json:"delta"`
}

// NameRequest represents a body carrying only a name
type NameRequest struct {
	Name string `json:"name"`
}

// paramID parses the :id route parameter
func paramID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, fiber.ErrBadRequest
	}
	return uint(id), nil
}

// ============================================================
// Books
// ============================================================

// ListBooks lists books
// @Summary List books
// @Tags Books
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /books [get]
func (h *BookHandler) ListBooks(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	books, total, err := h.bookService.List(c.UserContext(), params.Offset, params.Limit)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Books retrieved successfully", pagination.NewResponse(books, params, total))
}

// GetBook gets a book by ID
// @Summary Get book
// @Tags Books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id} [get]
func (h *BookHandler) GetBook(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid ID")
	}

	book, err := h.bookService.GetByID(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Book retrieved successfully", book)
}

// GetBookBySlug gets a book by slug
// @Summary Get book by slug
// @Tags Books
// @Produce json
// @Param slug path string true "Book slug"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/slug/{slug} [get]
func (h *BookHandler) GetBookBySlug(c *fiber.Ctx) error {
	book, err := h.bookService.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Book retrieved successfully", book)
}

// CreateBook adds a book
// @Summary Create book
// @Description Add a book to the catalog (Librarian/Admin)
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateBookInput true "Book data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books [post]
func (h *BookHandler) CreateBook(c *fiber.Ctx) error {
	var input services.CreateBookInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	book, err := h.bookService.Create(c.UserContext(), &input)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Book created successfully", book)
}

// RestockBook changes the shelf quantity
// @Summary Restock book
// @Description Add or remove copies (Librarian/Admin)
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param body body RestockRequest true "Quantity change"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /books/{id}/quantity [patch]
func (h *BookHandler) RestockBook(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid ID")
	}

	var req RestockRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	book, err := h.bookService.Restock(c.UserContext(), id, req.Delta)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Quantity updated successfully", book)
}

// ============================================================
// Authors & Publishers
// ============================================================

// ListAuthors lists authors
// @Summary List authors
// @Tags Books
// @Produce json
// @Success 200 {object} response.Response
// @Router /authors [get]
func (h *BookHandler) ListAuthors(c *fiber.Ctx) error {
	authors, err := h.bookService.ListAuthors(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Authors retrieved successfully", authors)
}

// CreateAuthor adds an author
// @Summary Create author
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body NameRequest true "Author"
// @Success 201 {object} response.Response
// @Router /authors [post]
func (h *BookHandler) CreateAuthor(c *fiber.Ctx) error {
	var req NameRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	author, err := h.bookService.CreateAuthor(c.UserContext(), req.Name)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Author created successfully", author)
}

// ListPublishers lists publishers
// @Summary List publishers
// @Tags Books
// @Produce json
// @Success 200 {object} response.Response
// @Router /publishers [get]
func (h *BookHandler) ListPublishers(c *fiber.Ctx) error {
	publishers, err := h.bookService.ListPublishers(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Publishers retrieved successfully", publishers)
}

// CreatePublisher adds a publisher
// @Summary Create publisher
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body NameRequest true "Publisher"
// @Success 201 {object} response.Response
// @Router /publishers [post]
func (h *BookHandler) CreatePublisher(c *fiber.Ctx) error {
	var req NameRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	publisher, err := h.bookService.CreatePublisher(c.UserContext(), req.Name)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Publisher created successfully", publisher)
}
