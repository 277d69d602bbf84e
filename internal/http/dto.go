package http

import (
	"time"

	"github.com/shopspring/decimal"

	"hearth/internal/core"
	"hearth/internal/projection"
	"hearth/internal/tracker"
)

// Wire types. Amounts travel as decimal strings, instants as RFC 3339,
// calendar days as YYYY-MM-DD.

type accountDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type transactionDTO struct {
	ID              string          `json:"id"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	Date            *string         `json:"date,omitempty"`
	Direction       string          `json:"direction"`
	AccountID       string          `json:"accountId"`
	Category        string          `json:"category"`
	RecurringItemID string          `json:"recurringItemId,omitempty"`
	TransferID      string          `json:"transferId,omitempty"`
	Frequency       string          `json:"frequency,omitempty"`
	WasPaidEarly    bool            `json:"wasPaidEarly,omitempty"`
	SkippedUntil    *string         `json:"skippedUntil,omitempty"`
	IsBill          bool            `json:"isBill,omitempty"`
	IsProjected     bool            `json:"isProjected,omitempty"`
}

type recurringItemDTO struct {
	ID            string          `json:"id"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Direction     string          `json:"direction"`
	Frequency     string          `json:"frequency"`
	NextDate      *string         `json:"nextDate,omitempty"`
	Category      string          `json:"category"`
	IsFluctuating bool            `json:"isFluctuating,omitempty"`
	SkippedDates  []string        `json:"skippedDates,omitempty"`
	SkippedUntil  *string         `json:"skippedUntil,omitempty"`
	IsPostponed   bool            `json:"isPostponed,omitempty"`
	AccountID     string          `json:"accountId"`
}

type upcomingItemDTO struct {
	OriginalID        string          `json:"originalId"`
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	Date              string          `json:"date"`
	Direction         string          `json:"direction"`
	IsRecurring       bool            `json:"isRecurring"`
	ConfirmationState string          `json:"confirmationState"`
	IsPostponed       bool            `json:"isPostponed,omitempty"`
	AccountName       string          `json:"accountName,omitempty"`
}

type dayGroupDTO struct {
	Day          string           `json:"day"`
	Transactions []transactionDTO `json:"transactions"`
}

type balancesDTO struct {
	Date     string                     `json:"date"`
	Accounts map[string]decimal.Decimal `json:"accounts"`
	Total    decimal.Decimal            `json:"total"`
	Checking decimal.Decimal            `json:"checking"`
	Savings  decimal.Decimal            `json:"savings"`
}

type budgetDTO struct {
	MonthlyGoal       decimal.Decimal            `json:"monthlyGoal"`
	WeeklyGoal        decimal.Decimal            `json:"weeklyGoal"`
	MonthlySpent      decimal.Decimal            `json:"monthlySpent"`
	WeeklySpent       decimal.Decimal            `json:"weeklySpent"`
	MonthlyByCategory map[string]decimal.Decimal `json:"monthlyByCategory"`
	WeeklyByCategory  map[string]decimal.Decimal `json:"weeklyByCategory"`
	MonthlyCapacity   decimal.Decimal            `json:"monthlyCapacity"`
	WeeklyCapacity    decimal.Decimal            `json:"weeklyCapacity"`
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// parseTime accepts an RFC 3339 instant or a bare calendar date.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, core.ErrInvalidDate
	}
	return t, nil
}

func parseTimePtr(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := parseTime(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func toAccountDTO(a core.Account) accountDTO {
	return accountDTO{ID: a.ID, Name: a.Name, Type: a.Type}
}

func (d accountDTO) toDomain() core.Account {
	return core.Account{ID: d.ID, Name: d.Name, Type: d.Type}
}

func toTransactionDTO(t core.Transaction) transactionDTO {
	return transactionDTO{
		ID:              t.ID,
		Description:     t.Description,
		Amount:          t.Amount,
		Date:            formatTime(t.Date),
		Direction:       string(t.Direction),
		AccountID:       t.AccountID,
		Category:        string(t.Category),
		RecurringItemID: t.RecurringItemID,
		TransferID:      t.TransferID,
		Frequency:       string(t.Frequency),
		WasPaidEarly:    t.WasPaidEarly,
		SkippedUntil:    formatTime(t.SkippedUntil),
		IsBill:          t.IsBill,
		IsProjected:     t.IsProjected(),
	}
}

func (d transactionDTO) toDomain() (core.Transaction, error) {
	date, err := parseTimePtr(d.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	skippedUntil, err := parseTimePtr(d.SkippedUntil)
	if err != nil {
		return core.Transaction{}, err
	}
	direction, _ := core.CoerceDirection(d.Direction)
	category, _ := core.CoerceCategory(d.Category)
	t := core.Transaction{
		ID:              d.ID,
		Description:     d.Description,
		Amount:          d.Amount,
		Date:            date,
		Direction:       direction,
		AccountID:       d.AccountID,
		Category:        category,
		RecurringItemID: d.RecurringItemID,
		TransferID:      d.TransferID,
		WasPaidEarly:    d.WasPaidEarly,
		SkippedUntil:    skippedUntil,
		IsBill:          d.IsBill,
	}
	if d.Frequency != "" {
		t.Frequency, _ = core.CoerceFrequency(d.Frequency)
	}
	return t, nil
}

func toRecurringItemDTO(item core.RecurringItem) recurringItemDTO {
	dto := recurringItemDTO{
		ID:            item.ID,
		Description:   item.Description,
		Amount:        item.Amount,
		Direction:     string(item.Direction),
		Frequency:     string(item.Frequency),
		NextDate:      formatTime(item.NextDate),
		Category:      string(item.Category),
		IsFluctuating: item.IsFluctuating,
		SkippedUntil:  formatTime(item.SkippedUntil),
		IsPostponed:   item.IsPostponed,
		AccountID:     item.AccountID,
	}
	for _, d := range item.SkippedDates {
		dto.SkippedDates = append(dto.SkippedDates, d.Format(time.RFC3339))
	}
	return dto
}

func (d recurringItemDTO) toDomain() (core.RecurringItem, error) {
	nextDate, err := parseTimePtr(d.NextDate)
	if err != nil {
		return core.RecurringItem{}, err
	}
	skippedUntil, err := parseTimePtr(d.SkippedUntil)
	if err != nil {
		return core.RecurringItem{}, err
	}
	direction, _ := core.CoerceDirection(d.Direction)
	frequency, _ := core.CoerceFrequency(d.Frequency)
	category, _ := core.CoerceCategory(d.Category)
	item := core.RecurringItem{
		ID:            d.ID,
		Description:   d.Description,
		Amount:        d.Amount,
		Direction:     direction,
		Frequency:     frequency,
		NextDate:      nextDate,
		Category:      category,
		IsFluctuating: d.IsFluctuating,
		SkippedUntil:  skippedUntil,
		IsPostponed:   d.IsPostponed,
		AccountID:     d.AccountID,
	}
	for _, s := range d.SkippedDates {
		t, err := parseTime(s)
		if err != nil {
			return core.RecurringItem{}, err
		}
		item.SkippedDates = append(item.SkippedDates, t)
	}
	return item, nil
}

func toUpcomingItemDTO(item core.UpcomingDisplayItem) upcomingItemDTO {
	return upcomingItemDTO{
		OriginalID:        item.OriginalID,
		Description:       item.Description,
		Amount:            item.Amount,
		Date:              item.Date.Format(time.RFC3339),
		Direction:         string(item.Direction),
		IsRecurring:       item.IsRecurring,
		ConfirmationState: string(item.ConfirmationState),
		IsPostponed:       item.IsPostponed,
		AccountName:       item.AccountName,
	}
}

func toTransactionDTOs(txns []core.Transaction) []transactionDTO {
	out := make([]transactionDTO, 0, len(txns))
	for _, t := range txns {
		out = append(out, toTransactionDTO(t))
	}
	return out
}

func toDayGroupDTOs(groups []projection.DayGroup) []dayGroupDTO {
	out := make([]dayGroupDTO, 0, len(groups))
	for _, g := range groups {
		out = append(out, dayGroupDTO{
			Day:          g.Day.String(),
			Transactions: toTransactionDTOs(g.Transactions),
		})
	}
	return out
}

func toBudgetDTO(summary tracker.BudgetSummary) budgetDTO {
	dto := budgetDTO{
		MonthlyGoal:       summary.Goals.Monthly,
		WeeklyGoal:        summary.Goals.Weekly,
		MonthlySpent:      summary.MonthlySpent,
		WeeklySpent:       summary.WeeklySpent,
		MonthlyByCategory: make(map[string]decimal.Decimal, len(summary.MonthlyByCategory)),
		WeeklyByCategory:  make(map[string]decimal.Decimal, len(summary.WeeklyByCategory)),
		MonthlyCapacity:   summary.MonthlyCapacity,
		WeeklyCapacity:    summary.WeeklyCapacity,
	}
	for c, v := range summary.MonthlyByCategory {
		dto.MonthlyByCategory[string(c)] = v
	}
	for c, v := range summary.WeeklyByCategory {
		dto.WeeklyByCategory[string(c)] = v
	}
	return dto
}
