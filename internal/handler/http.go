package handler

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/amaumene/foldpredict/internal/config"
	"github.com/amaumene/foldpredict/internal/domain"
	"github.com/amaumene/foldpredict/internal/metrics"
	"github.com/amaumene/foldpredict/internal/sequence"
	"github.com/amaumene/foldpredict/internal/service"
	"github.com/amaumene/foldpredict/web"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	log "github.com/sirupsen/logrus"
)

const (
	formFieldSequence = "sequence"
	staticPrefix      = "/static/"
	pdbContentType    = "chemical/x-pdb"
	pageTitle         = "Protein Structure Prediction"
	headerAPIKey      = "X-API-Key"

	msgInvalidSequence = "Invalid sequence! Use standard amino acids only."
	msgTooLongFormat   = "Sequence too long! Max %d residues."
	msgFetchFailed     = "Failed to fetch prediction: %v"
	msgProcessFailed   = "Error processing PDB file: %v"
	msgStoreFailed     = "Failed to store prediction: %v"
	msgNotFound        = "Not found."
	msgInternal        = "Internal error."
	msgUnauthorized    = "Invalid or missing API key."
)

type HTTPHandler struct {
	cfg         *config.Config
	predictions *service.PredictionService
	files       domain.StructureStore
}

func NewHTTPHandler(cfg *config.Config, predictions *service.PredictionService, files domain.StructureStore) *HTTPHandler {
	return &HTTPHandler{
		cfg:         cfg,
		predictions: predictions,
		files:       files,
	}
}

// NewApp builds the fiber application with views, middleware and routes.
func NewApp(h *HTTPHandler) *fiber.App {
	engine := html.NewFileSystem(http.FS(web.Templates()), ".html")

	app := fiber.New(fiber.Config{
		AppName:               "foldpredict",
		Views:                 engine,
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
		ReadTimeout:           h.cfg.HTTPTimeout,
		WriteTimeout:          h.cfg.HTTPTimeout,
	})
	app.Use(recover.New())
	app.Use(requestLogger())

	h.RegisterRoutes(app)
	return app
}

func (h *HTTPHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/", h.handleIndex)
	app.Post("/predict", h.handlePredict)
	app.Get(staticPrefix+":filename", h.handleStatic)
	app.Get("/health", h.handleHealth)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := app.Group("/api", apiKeyAuth(h.cfg.APIKey))
	api.Get("/predictions", h.handleList)
	api.Get("/predictions/:id", h.handleGet)
	api.Delete("/predictions/:id", h.handleDelete)
}

func (h *HTTPHandler) handleIndex(c *fiber.Ctx) error {
	return c.Render("index", fiber.Map{
		"Title":     pageTitle,
		"MaxLength": h.cfg.MaxSequenceLength,
		"Alphabet":  sequence.Alphabet,
	})
}

func (h *HTTPHandler) handlePredict(c *fiber.Ctx) error {
	prediction, err := h.predictions.Predict(c.UserContext(), c.FormValue(formFieldSequence))
	if err != nil {
		return h.writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(domain.Result{
		PDBURL:          staticPrefix + prediction.File,
		Confidence:      prediction.Confidence,
		MolecularWeight: prediction.MolecularWeight,
		SequenceLength:  prediction.SequenceLength,
	})
}

func (h *HTTPHandler) handleStatic(c *fiber.Ctx) error {
	name := c.Params("filename")
	rc, size, err := h.files.Open(name)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidFileName) || errors.Is(err, os.ErrNotExist) {
			return writeJSONError(c, fiber.StatusNotFound, msgNotFound)
		}
		log.WithFields(log.Fields{
			"file":  name,
			"error": err,
		}).Error("failed to open structure file")
		return writeJSONError(c, fiber.StatusInternalServerError, msgInternal)
	}

	c.Set(fiber.HeaderContentType, pdbContentType)
	return c.SendStream(rc, int(size))
}

func (h *HTTPHandler) handleHealth(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusOK)
}

func (h *HTTPHandler) handleList(c *fiber.Ctx) error {
	predictions, err := h.predictions.List(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		log.WithField("error", err).Error("failed to list predictions")
		return writeJSONError(c, fiber.StatusInternalServerError, msgInternal)
	}
	return c.JSON(predictions)
}

func (h *HTTPHandler) handleGet(c *fiber.Ctx) error {
	prediction, err := h.predictions.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(prediction)
}

func (h *HTTPHandler) handleDelete(c *fiber.Ctx) error {
	if err := h.predictions.Delete(c.UserContext(), c.Params("id")); err != nil {
		return h.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *HTTPHandler) writeError(c *fiber.Ctx, err error) error {
	status, msg := h.describeError(err)
	return writeJSONError(c, status, msg)
}

func (h *HTTPHandler) describeError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidSequence):
		return fiber.StatusBadRequest, msgInvalidSequence
	case errors.Is(err, domain.ErrSequenceTooLong):
		return fiber.StatusBadRequest, fmt.Sprintf(msgTooLongFormat, h.cfg.MaxSequenceLength)
	case errors.Is(err, domain.ErrPredictionNotFound):
		return fiber.StatusNotFound, msgNotFound
	case errors.Is(err, domain.ErrUpstream):
		return fiber.StatusInternalServerError, fmt.Sprintf(msgFetchFailed, err)
	case errors.Is(err, domain.ErrProcessing):
		return fiber.StatusInternalServerError, fmt.Sprintf(msgProcessFailed, err)
	case errors.Is(err, domain.ErrStorage):
		return fiber.StatusInternalServerError, fmt.Sprintf(msgStoreFailed, err)
	}
	log.WithField("error", err).Error("unhandled request error")
	return fiber.StatusInternalServerError, msgInternal
}

func writeJSONError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// errorHandler renders errors escaping the handlers (unknown routes, wrong
// methods, panics) as JSON.
func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := msgInternal

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		msg = fe.Message
	} else {
		log.WithFields(log.Fields{
			"path":  c.Path(),
			"error": err,
		}).Error("request failed")
	}
	return writeJSONError(c, status, msg)
}
