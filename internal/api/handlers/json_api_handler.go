package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alexander-kastil/talk-low-code-process/internal/models"
	"github.com/alexander-kastil/talk-low-code-process/internal/services"
)

// JsonApiRequest defines the expected structure for JSON API requests.
type JsonApiRequest struct {
	Method    string          `json:"method"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// JsonApiResponse defines the structure for JSON API responses.
type JsonApiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	// Kind is set on failures: invalid_argument, not_found, conflict or unexpected.
	Kind string `json:"kind,omitempty"`
}

type ApiError struct {
	Kind    string
	Message string
}

func (e *ApiError) Error() string {
	return e.Message
}

func NewApiError(message string) *ApiError {
	return &ApiError{Kind: "invalid_argument", Message: message}
}

// apiMethodFunc defines the signature for handler methods.
type apiMethodFunc func(c *gin.Context, args json.RawMessage) (interface{}, *ApiError)

// JsonApiHandler serves the same workflows as the REST routes behind a single
// method-dispatch endpoint. Every answer is HTTP 200; the outcome is in the body.
type JsonApiHandler struct {
	inquiryService  services.IInquiryService
	orderService    services.IOrderService
	supplierService services.ISupplierService
	methods         map[string]apiMethodFunc
}

func NewJsonApiHandler(
	inquiryService services.IInquiryService,
	orderService services.IOrderService,
	supplierService services.ISupplierService,
) *JsonApiHandler {
	h := &JsonApiHandler{
		inquiryService:  inquiryService,
		orderService:    orderService,
		supplierService: supplierService,
	}
	h.methods = map[string]apiMethodFunc{
		"ping":                   h.ping,
		"requestOffer":           h.requestOffer,
		"getOfferById":           h.getOfferByID,
		"placeOrder":             h.placeOrder,
		"getSuppliers":           h.getSuppliers,
		"getSupplierById":        h.getSupplierByID,
		"getSuppliersByName":     h.getSuppliersByName,
		"getSuppliersForProduct": h.getSuppliersForProduct,
	}
	return h
}

// HandleRequest is the main entry point for POST /v1/api
func (h *JsonApiHandler) HandleRequest(c *gin.Context) {
	bodyBytes, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.sendErrorResponse(c, NewApiError("Failed to read request body"))
		return
	}

	var req JsonApiRequest
	if err := json.Unmarshal(bodyBytes, &req); err != nil {
		h.sendErrorResponse(c, NewApiError("Invalid JSON request format"))
		return
	}

	handlerFunc, ok := h.methods[req.Method]
	if !ok {
		h.sendErrorResponse(c, &ApiError{Kind: "not_found", Message: fmt.Sprintf("Unknown method: %s", req.Method)})
		return
	}

	result, apiErr := handlerFunc(c, req.Arguments)
	if apiErr != nil {
		h.sendErrorResponse(c, apiErr)
		return
	}
	h.sendSuccessResponse(c, result)
}

func (h *JsonApiHandler) sendSuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, JsonApiResponse{Success: true, Data: data})
}

func (h *JsonApiHandler) sendErrorResponse(c *gin.Context, apiErr *ApiError) {
	c.JSON(http.StatusOK, JsonApiResponse{Success: false, Error: apiErr.Message, Kind: apiErr.Kind})
}

// toApiError converts a workflow error; unexpected errors are logged and replaced by fallback.
func toApiError(method string, err error, fallback string) *ApiError {
	switch {
	case errors.Is(err, services.ErrInvalidArgument):
		return &ApiError{Kind: "invalid_argument", Message: services.MessageOf(err, fallback)}
	case errors.Is(err, services.ErrNotFound):
		return &ApiError{Kind: "not_found", Message: services.MessageOf(err, fallback)}
	case errors.Is(err, services.ErrConflict):
		return &ApiError{Kind: "conflict", Message: services.MessageOf(err, fallback)}
	default:
		log.Printf("ERROR json api method %s: %v", method, err)
		return &ApiError{Kind: "unexpected", Message: fallback}
	}
}

// parseRequiredSingleArgFromArray decodes arguments[0] into targetVarPtr.
func (h *JsonApiHandler) parseRequiredSingleArgFromArray(rawArgPayload json.RawMessage, targetVarPtr interface{}) *ApiError {
	var argArray []json.RawMessage
	if rawArgPayload == nil {
		return NewApiError("Missing 'arguments' field; expected a JSON array with one argument.")
	}
	if err := json.Unmarshal(rawArgPayload, &argArray); err != nil {
		return NewApiError("Invalid 'arguments': expected a JSON array.")
	}
	if len(argArray) == 0 {
		return NewApiError("Invalid 'arguments': array is empty, but one argument is expected.")
	}
	if err := json.Unmarshal(argArray[0], targetVarPtr); err != nil {
		return NewApiError("Invalid format for argument: the first element in 'arguments' array has unexpected structure.")
	}
	return nil
}

// --- API Method Implementations ---

func (h *JsonApiHandler) ping(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	_ = args
	return "pong", nil
}

func (h *JsonApiHandler) requestOffer(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	var req models.OfferRequest
	if apiErr := h.parseRequiredSingleArgFromArray(args, &req); apiErr != nil {
		return nil, apiErr
	}
	offer, err := h.inquiryService.RequestOffer(c.Request.Context(), req)
	if err != nil {
		return nil, toApiError("requestOffer", err, "Failed to create offer")
	}
	return offer, nil
}

func (h *JsonApiHandler) getOfferByID(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	var id string
	if apiErr := h.parseRequiredSingleArgFromArray(args, &id); apiErr != nil {
		return nil, apiErr
	}
	offer, err := h.inquiryService.GetOfferByID(c.Request.Context(), id)
	if err != nil {
		return nil, toApiError("getOfferById", err, "Failed to retrieve offer")
	}
	return offer, nil
}

func (h *JsonApiHandler) placeOrder(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	var order models.Order
	if apiErr := h.parseRequiredSingleArgFromArray(args, &order); apiErr != nil {
		return nil, apiErr
	}
	confirmation, err := h.orderService.PlaceOrder(c.Request.Context(), order)
	if err != nil {
		return nil, toApiError("placeOrder", err, "Failed to place order")
	}
	return confirmation, nil
}

func (h *JsonApiHandler) getSuppliers(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	_ = args
	suppliers, err := h.supplierService.GetSuppliers(c.Request.Context())
	if err != nil {
		return nil, toApiError("getSuppliers", err, "Failed to retrieve suppliers")
	}
	return suppliers, nil
}

func (h *JsonApiHandler) getSupplierByID(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	var id int
	if apiErr := h.parseRequiredSingleArgFromArray(args, &id); apiErr != nil {
		return nil, apiErr
	}
	supplier, err := h.supplierService.GetSupplierByID(c.Request.Context(), id)
	if err != nil {
		return nil, toApiError("getSupplierById", err, "Failed to retrieve supplier")
	}
	return supplier, nil
}

func (h *JsonApiHandler) getSuppliersByName(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	var name string
	if apiErr := h.parseRequiredSingleArgFromArray(args, &name); apiErr != nil {
		return nil, apiErr
	}
	suppliers, err := h.supplierService.GetSuppliersByName(c.Request.Context(), name)
	if err != nil {
		return nil, toApiError("getSuppliersByName", err, "Failed to retrieve suppliers")
	}
	return suppliers, nil
}

func (h *JsonApiHandler) getSuppliersForProduct(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	var product string
	if apiErr := h.parseRequiredSingleArgFromArray(args, &product); apiErr != nil {
		return nil, apiErr
	}
	suppliers, err := h.supplierService.GetSuppliersForProduct(c.Request.Context(), product)
	if err != nil {
		return nil, toApiError("getSuppliersForProduct", err, "Failed to retrieve suppliers")
	}
	return suppliers, nil
}
