package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/smartpetcare/feeder-backend/internal/apperr"
	"github.com/smartpetcare/feeder-backend/internal/db"
)

const reportWindow = 30 * 24 * time.Hour

type deviceSummary struct {
	DeviceID    string `json:"device_id"`
	DisplayName string `json:"display_name"`
}

type registerDeviceRequest struct {
	DeviceID string `json:"device_id"`
}

type statusResponse struct {
	FoodWeighted *float64  `json:"food_weighted"`
	WaterLevel   *string   `json:"water_level"`
	MainStock    *string   `json:"main_stock"`
	RecordedAt   time.Time `json:"recorded_at"`
}

type scheduleEntry struct {
	FeedTime    string  `json:"feed_time"`
	AmountGrams float64 `json:"amount_grams"`
}

type fullReportResponse struct {
	DeviceID    string             `json:"device_id"`
	DisplayName string             `json:"display_name"`
	Status      *statusResponse    `json:"status"`
	FoodHistory []foodSample       `json:"food_history"`
	Consumption consumptionSummary `json:"consumption"`
}

type foodSample struct {
	RecordedAt   time.Time `json:"recorded_at"`
	FoodWeighted float64   `json:"food_weighted"`
}

func toStatusResponse(reading *db.DeviceReading) *statusResponse {
	if reading == nil {
		return nil
	}
	return &statusResponse{
		FoodWeighted: reading.FoodWeighted,
		WaterLevel:   reading.WaterLevel,
		MainStock:    reading.MainStock,
		RecordedAt:   reading.RecordedAt,
	}
}

func (rt *Router) handleListDevices(w http.ResponseWriter, r *http.Request) {
	email := callerEmail(r)

	deviceIDs, err := rt.devices.ListOwnedDevices(r.Context(), email)
	if err != nil {
		writeError(w, rt.logger, apperr.Transient("Failed to list devices", err))
		return
	}

	devices := make([]deviceSummary, 0, len(deviceIDs))
	for _, id := range deviceIDs {
		name, err := rt.devices.DisplayName(r.Context(), id)
		if err != nil {
			writeError(w, rt.logger, apperr.Transient("Failed to list devices", err))
			return
		}
		if name == "" {
			name = id
		}
		devices = append(devices, deviceSummary{DeviceID: id, DisplayName: name})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"devices": devices})
}

func (rt *Router) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req registerDeviceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, rt.logger, err)
		return
	}
	if req.DeviceID == "" {
		writeError(w, rt.logger, apperr.Validation("device_id is required"))
		return
	}

	exists, err := rt.devices.Exists(r.Context(), req.DeviceID)
	if err != nil {
		writeError(w, rt.logger, apperr.Transient("Failed to register device", err))
		return
	}
	if !exists {
		writeError(w, rt.logger, apperr.NotFound("Device not found"))
		return
	}

	// Checked before insert rather than enforced by the store
	owned, err := rt.devices.IsOwned(r.Context(), req.DeviceID)
	if err != nil {
		writeError(w, rt.logger, apperr.Transient("Failed to register device", err))
		return
	}
	if owned {
		writeError(w, rt.logger, apperr.Conflict("Device already registered"))
		return
	}

	if err := rt.devices.LinkOwner(r.Context(), req.DeviceID, callerEmail(r)); err != nil {
		writeError(w, rt.logger, apperr.Transient("Failed to register device", err))
		return
	}
	writeMessage(w, http.StatusCreated, "Device registered")
}

func (rt *Router) handleAllStatuses(w http.ResponseWriter, r *http.Request) {
	email := callerEmail(r)

	deviceIDs, err := rt.devices.ListOwnedDevices(r.Context(), email)
	if err != nil {
		writeError(w, rt.logger, apperr.Transient("Failed to load statuses", err))
		return
	}

	statuses := map[string]*statusResponse{}
	for _, id := range deviceIDs {
		reading, err := rt.readings.GetCurrent(r.Context(), id)
		if err != nil {
			writeError(w, rt.logger, apperr.Transient("Failed to load statuses", err))
			return
		}
		statuses[id] = toStatusResponse(reading)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"statuses": statuses})
}

func (rt *Router) handleFullReport(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "device_id")

	if err := rt.requireOwnership(r, deviceID); err != nil {
		writeError(w, rt.logger, err)
		return
	}

	since := time.Now().Add(-reportWindow)

	reading, err := rt.readings.GetCurrent(r.Context(), deviceID)
	if err != nil {
		writeError(w, rt.logger, apperr.Transient("Failed to build report", err))
		return
	}
	history, err := rt.readings.ListFoodHistory(r.Context(), deviceID, since)
	if err != nil {
		writeError(w, rt.logger, apperr.Transient("Failed to build report", err))
		return
	}
	events, err := rt.consumption.ListSince(r.Context(), deviceID, since)
	if err != nil {
		writeError(w, rt.logger, apperr.Transient("Failed to build report", err))
		return
	}

	name, err := rt.devices.DisplayName(r.Context(), deviceID)
	if err != nil {
		writeError(w, rt.logger, apperr.Transient("Failed to build report", err))
		return
	}
	if name == "" {
		name = deviceID
	}

	samples := make([]foodSample, 0, len(history))
	for _, s := range history {
		samples = append(samples, foodSample{RecordedAt: s.RecordedAt, FoodWeighted: s.FoodWeighted})
	}

	writeJSON(w, http.StatusOK, fullReportResponse{
		DeviceID:    deviceID,
		DisplayName: name,
		Status:      toStatusResponse(reading),
		FoodHistory: samples,
		Consumption: summarizeConsumption(events),
	})
}

func (rt *Router) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "device_id")

	if err := rt.requireOwnership(r, deviceID); err != nil {
		writeError(w, rt.logger, err)
		return
	}

	schedules, err := rt.schedules.ListByDevice(r.Context(), deviceID)
	if err != nil {
		writeError(w, rt.logger, apperr.Transient("Failed to load schedule", err))
		return
	}

	entries := make([]scheduleEntry, 0, len(schedules))
	for _, s := range schedules {
		entries = append(entries, scheduleEntry{FeedTime: s.FeedTime, AmountGrams: s.AmountGrams})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"schedule": entries})
}

func (rt *Router) handleSetSchedule(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "device_id")
	email := callerEmail(r)

	if err := rt.requireOwnership(r, deviceID); err != nil {
		writeError(w, rt.logger, err)
		return
	}

	var req struct {
		Schedule []scheduleEntry `json:"schedule"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, rt.logger, err)
		return
	}
	for _, entry := range req.Schedule {
		if _, err := time.Parse("15:04", entry.FeedTime); err != nil {
			writeError(w, rt.logger, apperr.Validation(fmt.Sprintf("Invalid feed_time %q, expected HH:MM", entry.FeedTime)))
			return
		}
		if entry.AmountGrams <= 0 {
			writeError(w, rt.logger, apperr.Validation("amount_grams must be positive"))
			return
		}
	}

	entries := make([]db.FeedSchedule, 0, len(req.Schedule))
	for _, entry := range req.Schedule {
		entries = append(entries, db.FeedSchedule{
			DeviceID:    deviceID,
			Email:       email,
			FeedTime:    entry.FeedTime,
			AmountGrams: entry.AmountGrams,
		})
	}

	if err := rt.schedules.Replace(r.Context(), deviceID, email, entries); err != nil {
		writeError(w, rt.logger, apperr.Transient("Failed to save schedule", err))
		return
	}

	rt.publishScheduleUpdate(deviceID, req.Schedule)
	writeMessage(w, http.StatusOK, "Schedule updated")
}

// publishScheduleUpdate pushes the new schedule to the device as a retained
// message so the feeder picks it up even if it is offline right now. Publish
// failure never fails the request; the schedule is already stored.
func (rt *Router) publishScheduleUpdate(deviceID string, entries []scheduleEntry) {
	payload, err := json.Marshal(map[string]interface{}{"schedule": entries})
	if err != nil {
		rt.logger.Error("failed to encode schedule update", zap.Error(err))
		return
	}

	topic := fmt.Sprintf("%s/devices/%s/schedule_update", rt.topicRoot, deviceID)
	if err := rt.publisher.Publish(topic, 1, true, payload); err != nil {
		rt.logger.Error("failed to publish schedule update",
			zap.Error(err),
			zap.String("device_id", deviceID),
		)
	}
}

// requireOwnership hides devices the caller does not own behind a 404
func (rt *Router) requireOwnership(r *http.Request, deviceID string) error {
	if deviceID == "" {
		return apperr.Validation("device_id is required")
	}
	owned, err := rt.devices.IsOwnedBy(r.Context(), deviceID, callerEmail(r))
	if err != nil {
		return apperr.Transient("Failed to check device ownership", err)
	}
	if !owned {
		return apperr.NotFound("Device not found")
	}
	return nil
}
