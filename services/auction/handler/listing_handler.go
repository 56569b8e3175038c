package handler

import (
	"net/http"
	"strconv"

	auction "auction-house/internal/auctionService"
	model "auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/services/auction/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

// ListCategoriesHandler handles GET /categories
func (h *AuctionHandler) ListCategoriesHandler(c *gin.Context) {
	categories := model.Categories()
	resp := make([]helpers.CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		resp = append(resp, helpers.CategoryResponse{Code: string(cat), Label: cat.Label()})
	}
	utils.JSONResponse(c, http.StatusOK, resp, "categories retrieved successfully")
}

// ListListingsHandler handles GET /listings?category=&active=&owner_id=
func (h *AuctionHandler) ListListingsHandler(c *gin.Context) {
	filter := repository.ListingFilter{
		Category:   model.Category(c.Query("category")),
		ActiveOnly: true,
		OwnerID:    c.Query("owner_id"),
	}
	if raw, ok := c.GetQuery("active"); ok {
		activeOnly, err := strconv.ParseBool(raw)
		if err != nil {
			helpers.HandleBindError(c, "ListListingsHandler", err)
			return
		}
		filter.ActiveOnly = activeOnly
	}

	listings, err := h.service.ListListings(c.Request.Context(), filter)
	if err != nil {
		helpers.RespondServiceError(c, "ListListingsHandler", "error listing listings", err, map[string]any{
			"category": string(filter.Category),
		})
		return
	}
	if listings == nil {
		listings = []model.Listing{}
	}

	utils.JSONResponse(c, http.StatusOK, listings, "listings retrieved successfully")
	helpers.LogSuccess("ListListingsHandler", "listings retrieved successfully", map[string]any{
		"category": string(filter.Category),
		"count":    len(listings),
	})
}

// CreateListingHandler handles POST /listings
func (h *AuctionHandler) CreateListingHandler(c *gin.Context) {
	ownerID := helpers.RequesterID(c)

	var req helpers.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateListingHandler", err)
		return
	}

	listing, err := h.service.CreateListing(c.Request.Context(), ownerID, auction.NewListing{
		Title:         req.Title,
		Description:   req.Description,
		StartingPrice: *req.StartingPrice,
		ImageURL:      req.ImageURL,
		Category:      model.Category(req.Category),
	})
	if err != nil {
		helpers.RespondServiceError(c, "CreateListingHandler", "failed to create listing", err, map[string]any{"user_id": ownerID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, listing, "listing created successfully")
	helpers.LogSuccess("CreateListingHandler", "listing created successfully", map[string]any{
		"listing_id": listing.ListingID,
		"user_id":    ownerID,
		"price":      listing.Price.StringFixed(2),
	})
}

// GetListingHandler handles GET /listings/:listing_id
func (h *AuctionHandler) GetListingHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	detail, err := h.service.GetListingDetail(c.Request.Context(), listingID, helpers.RequesterID(c))
	if err != nil {
		helpers.RespondServiceError(c, "GetListingHandler", "error retrieving listing", err, map[string]any{"listing_id": listingID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, detail, "listing retrieved successfully")
}

// GetListingsByBidderHandler handles GET /users/:user_id/listings
func (h *AuctionHandler) GetListingsByBidderHandler(c *gin.Context) {
	userID := c.Param("user_id")
	listings, err := h.service.GetListingsByBidder(c.Request.Context(), userID)
	if err != nil {
		helpers.RespondServiceError(c, "GetListingsByBidderHandler", "error retrieving listings", err, map[string]any{"user_id": userID})
		return
	}
	if listings == nil {
		listings = []model.Listing{}
	}

	utils.JSONResponse(c, http.StatusOK, listings, "listings retrieved successfully")
	helpers.LogSuccess("GetListingsByBidderHandler", "listings retrieved successfully", map[string]any{
		"user_id":        userID,
		"listings_count": len(listings),
	})
}
