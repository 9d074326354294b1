package world

import "pioneer.ai/internal/sim/model"

func (w *World) hour() int { return w.minute / 60 }

func (w *World) TimeOfDay() model.DayTime { return model.DayTimeAt(w.hour()) }

func (w *World) Weather() model.Weather { return w.weatherOn(w.day) }

func (w *World) weatherOn(day int) model.Weather {
	for len(w.schedule) <= day {
		w.schedule = append(w.schedule, weatherFor(w.cfg.Seed, len(w.schedule)))
	}
	return w.schedule[day]
}

// Conditions reports the clock, today's weather and the forecast for the
// following days.
func (w *World) Conditions() model.Conditions {
	c := model.Conditions{
		Day:     w.day,
		Hour:    w.hour(),
		Minute:  w.minute % 60,
		DayTime: w.TimeOfDay(),
		Weather: w.Weather(),
	}
	for i := 1; i <= w.cfg.ForecastDays; i++ {
		c.Forecast = append(c.Forecast, w.weatherOn(w.day+i))
	}
	return c
}

// EndTick advances the clock, recharges energy and emits the time events.
// It emits Terminated once the tick limit is reached.
func (w *World) EndTick() {
	if w.terminated {
		return
	}
	w.tick++

	if w.cfg.RechargePerTick > 0 && w.energy < w.cfg.MaxEnergy {
		gained := min(w.cfg.RechargePerTick, w.cfg.MaxEnergy-w.energy)
		w.energy += gained
		w.emit(model.Event{Type: model.EventEnergyRecharged, Amount: gained})
	}

	w.minute += w.cfg.MinutesPerTick
	dayChanged := false
	for w.minute >= 24*60 {
		w.minute -= 24 * 60
		w.day++
		dayChanged = true
	}
	cond := w.Conditions()
	w.emit(model.Event{Type: model.EventTimeChanged, Conditions: cond})
	if dayChanged {
		w.emit(model.Event{Type: model.EventDayChanged, Conditions: cond})
	}

	if w.cfg.MaxTicks > 0 && w.tick >= uint64(w.cfg.MaxTicks) {
		w.Terminate()
	}
}

// Start emits Ready with the spawn position.
func (w *World) Start() {
	w.emit(model.Event{Type: model.EventReady, Pos: w.pos})
}

func (w *World) Terminate() {
	if w.terminated {
		return
	}
	w.terminated = true
	w.emit(model.Event{Type: model.EventTerminated})
}
