package handlers

import (
	"net/http"
	"strconv"
	"time"

	"ceremonify/models"
	"ceremonify/services/booking"

	"github.com/gin-gonic/gin"
)

type ProviderHandler struct {
	Service booking.BookingService
}

func NewProviderHandler(service booking.BookingService) *ProviderHandler {
	return &ProviderHandler{Service: service}
}

type workingHours struct {
	DayOfWeek *int   `json:"dayOfWeek" binding:"required"`
	StartTime string `json:"startTime" binding:"required"`
	EndTime   string `json:"endTime" binding:"required"`
}

// CheckAvailabilityHandler answers whether the range could be booked right now.
// Nothing is reserved.
func (h *ProviderHandler) CheckAvailabilityHandler(c *gin.Context) {
	res, err := h.Service.CheckAvailability(c.Request.Context(),
		c.Param("providerID"),
		c.Query("start_date"),
		c.Query("end_date"),
		c.Query("time_slot"),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": res.Admissible, "reason": res.Reason, "date": res.Date})
}

// SetAvailabilityHandler replaces working hours for every day named in the
// body. All days are validated before any is written.
func (h *ProviderHandler) SetAvailabilityHandler(c *gin.Context) {
	providerID := c.Param("providerID")

	var body struct {
		Slots []workingHours `json:"slots" binding:"required,min=1,dive"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": string(booking.InvalidRequest), "message": err.Error()})
		return
	}

	slots := make([]models.AvailabilitySlot, 0, len(body.Slots))
	for _, wh := range body.Slots {
		slot, err := models.NewAvailabilitySlot(providerID, time.Weekday(*wh.DayOfWeek), wh.StartTime, wh.EndTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": string(booking.InvalidRequest), "message": err.Error()})
			return
		}
		slots = append(slots, *slot)
	}

	stored := make([]models.AvailabilitySlot, 0, len(slots))
	for _, slot := range slots {
		s, err := h.Service.SetAvailability(c.Request.Context(), slot)
		if err != nil {
			respondError(c, err)
			return
		}
		stored = append(stored, *s)
	}
	c.JSON(http.StatusOK, gin.H{"availability": stored})
}

func (h *ProviderHandler) GetAvailabilityHandler(c *gin.Context) {
	slots, err := h.Service.ListAvailability(c.Request.Context(), c.Param("providerID"))
	if err != nil {
		respondError(c, err)
		return
	}
	if slots == nil {
		slots = []models.AvailabilitySlot{}
	}
	c.JSON(http.StatusOK, gin.H{"availability": slots})
}

func (h *ProviderHandler) DeleteAvailabilityHandler(c *gin.Context) {
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil || day < int(time.Sunday) || day > int(time.Saturday) {
		c.JSON(http.StatusBadRequest, gin.H{"error": string(booking.InvalidRequest), "message": "day must be an integer between 0 and 6"})
		return
	}
	if err := h.Service.DeleteAvailability(c.Request.Context(), c.Param("providerID"), time.Weekday(day)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Availability removed for " + time.Weekday(day).String()})
}

func (h *ProviderHandler) UpdateAdvancePolicyHandler(c *gin.Context) {
	var policy models.AdvancePolicy
	if err := c.ShouldBindJSON(&policy); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": string(booking.InvalidRequest), "message": err.Error()})
		return
	}
	p, err := h.Service.UpdateAdvancePolicy(c.Request.Context(), c.Param("providerID"), policy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"provider": p})
}
