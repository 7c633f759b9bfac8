package core

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Blobs written by older clients carry numeric ids, stringly typed counters
// and the like. The loose types below decode whatever JSON value they find
// into the closest usable Go value instead of failing the whole blob.

type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	*s = ""
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0:
	case data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err == nil {
			*s = looseString(v)
		}
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		// Numeric ids keep their literal digits.
		*s = looseString(data)
	}
	return nil
}

type looseInt int

func (n *looseInt) UnmarshalJSON(data []byte) error {
	*n = 0
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	switch x := v.(type) {
	case float64:
		if !math.IsNaN(x) && math.Abs(x) < 1<<31 {
			*n = looseInt(int(x))
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			*n = looseInt(i)
		}
	}
	return nil
}

type looseBool bool

func (b *looseBool) UnmarshalJSON(data []byte) error {
	*b = false
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	switch x := v.(type) {
	case bool:
		*b = looseBool(x)
	case float64:
		*b = x != 0
	case string:
		if p, err := strconv.ParseBool(strings.TrimSpace(x)); err == nil {
			*b = looseBool(p)
		}
	}
	return nil
}

// looseTime accepts RFC 3339 strings and epoch milliseconds.
type looseTime time.Time

func (t *looseTime) UnmarshalJSON(data []byte) error {
	*t = looseTime(time.Time{})
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	switch x := v.(type) {
	case string:
		if p, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(x)); err == nil {
			*t = looseTime(p)
		}
	case float64:
		if x > 0 && x < 1e15 {
			*t = looseTime(time.UnixMilli(int64(x)).UTC())
		}
	}
	return nil
}

func (tx *Transaction) UnmarshalJSON(data []byte) error {
	type plain Transaction
	aux := struct {
		*plain
		ID          looseString `json:"id"`
		Type        looseString `json:"type"`
		Category    looseString `json:"category"`
		Description looseString `json:"description"`
		BillID      looseString `json:"billId"`
	}{plain: (*plain)(tx)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	tx.ID = string(aux.ID)
	tx.Type = TransactionType(aux.Type)
	tx.Category = string(aux.Category)
	tx.Description = string(aux.Description)
	tx.BillID = string(aux.BillID)
	return nil
}

func (p *Payable) UnmarshalJSON(data []byte) error {
	type plain Payable
	aux := struct {
		*plain
		ID           looseString `json:"id"`
		Name         looseString `json:"name"`
		DueDay       looseInt    `json:"dueDay"`
		Status       looseString `json:"status"`
		Frequency    looseString `json:"frequency"`
		PaidCount    looseInt    `json:"paidCount"`
		MaxPayments  looseInt    `json:"maxPayments"`
		AssignedWeek looseInt    `json:"assignedWeek"`
		Period       looseString `json:"period"`
		Color        looseString `json:"color"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.ID = string(aux.ID)
	p.Name = string(aux.Name)
	p.DueDay = int(aux.DueDay)
	p.Status = PayableStatus(aux.Status)
	p.Frequency = Frequency(aux.Frequency)
	p.PaidCount = int(aux.PaidCount)
	p.MaxPayments = int(aux.MaxPayments)
	p.AssignedWeek = int(aux.AssignedWeek)
	p.Period = Period(aux.Period)
	p.Color = string(aux.Color)
	return nil
}

func (e *DailyIncomeEntry) UnmarshalJSON(data []byte) error {
	type plain DailyIncomeEntry
	aux := struct {
		*plain
		Day       looseString `json:"day"`
		IsToday   looseBool   `json:"isToday"`
		IsPast    looseBool   `json:"isPast"`
		IsWorkDay looseBool   `json:"isWorkDay"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.Day = string(aux.Day)
	e.IsToday = bool(aux.IsToday)
	e.IsPast = bool(aux.IsPast)
	e.IsWorkDay = bool(aux.IsWorkDay)
	return nil
}

func (c *BudgetCategory) UnmarshalJSON(data []byte) error {
	type plain BudgetCategory
	aux := struct {
		*plain
		Name  looseString `json:"name"`
		Color looseString `json:"color"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.Name = string(aux.Name)
	c.Color = string(aux.Color)
	return nil
}

func (s *Settings) UnmarshalJSON(data []byte) error {
	type plain Settings
	aux := struct {
		*plain
		WorkDays map[string]looseBool `json:"workDays"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.WorkDays = nil
	if aux.WorkDays != nil {
		s.WorkDays = make(map[string]bool, len(aux.WorkDays))
		for day, on := range aux.WorkDays {
			s.WorkDays[day] = bool(on)
		}
	}
	return nil
}

func (st *AppState) UnmarshalJSON(data []byte) error {
	type plain AppState
	aux := struct {
		*plain
		UpdatedAt looseTime `json:"updatedAt"`
	}{plain: (*plain)(st)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	st.UpdatedAt = time.Time(aux.UpdatedAt)
	return nil
}

func (mp *MonthlyPayables) UnmarshalJSON(data []byte) error {
	type plain MonthlyPayables
	aux := struct {
		*plain
		Year  looseInt `json:"year"`
		Month looseInt `json:"month"`
	}{plain: (*plain)(mp)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	mp.Year, mp.Month = int(aux.Year), int(aux.Month)
	return nil
}
