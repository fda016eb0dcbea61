package sim

import (
	"encoding/json"

	"github.com/msageha/ecosim/internal/model"
	"github.com/msageha/ecosim/internal/uds"
)

// StatusReport is the payload of the status control command.
type StatusReport struct {
	Tick       model.Tick                `json:"tick"`
	Paused     bool                      `json:"paused"`
	Speed      float64                   `json:"speed"`
	Entities   int                       `json:"entities"`
	Schedulers []model.SchedulerSnapshot `json:"schedulers"`
}

// SpeedParams carries the multiplier for the speed command.
type SpeedParams struct {
	Multiplier float64 `json:"multiplier"`
}

// registerControlHandlers wires the runtime control commands onto the
// socket server. shutdown asks the daemon to stop; it must not block.
func registerControlHandlers(server *uds.Server, engine *Engine, shutdown func()) {
	server.Handle("ping", func(req *uds.Request) *uds.Response {
		return uds.SuccessResponse(map[string]string{"status": "ok"})
	})

	server.Handle("status", func(req *uds.Request) *uds.Response {
		tick, paused, speed := engine.ClockState()
		return uds.SuccessResponse(StatusReport{
			Tick:       tick,
			Paused:     paused,
			Speed:      speed,
			Entities:   engine.EntityCount(),
			Schedulers: engine.Snapshots(),
		})
	})

	server.Handle("pause", func(req *uds.Request) *uds.Response {
		engine.Pause()
		return uds.SuccessResponse(map[string]bool{"paused": true})
	})

	server.Handle("resume", func(req *uds.Request) *uds.Response {
		engine.Resume()
		return uds.SuccessResponse(map[string]bool{"paused": false})
	})

	server.Handle("toggle", func(req *uds.Request) *uds.Response {
		paused := engine.TogglePause()
		return uds.SuccessResponse(map[string]bool{"paused": paused})
	})

	server.Handle("speed", func(req *uds.Request) *uds.Response {
		var params SpeedParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return uds.ErrorResponse(uds.ErrCodeValidation, "speed requires a multiplier: "+err.Error())
		}
		applied := engine.SetSpeed(params.Multiplier)
		return uds.SuccessResponse(map[string]float64{"applied": applied})
	})

	server.Handle("shutdown", func(req *uds.Request) *uds.Response {
		go shutdown()
		return uds.SuccessResponse(map[string]string{"status": "shutdown_accepted"})
	})
}
