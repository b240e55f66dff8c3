package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/ledgerkeep/ledgerkeep/internal/models"
)

// formatMoney renders integer minor units in the account's currency.
func formatMoney(amount int64, currency string) string {
	if currency == "" {
		currency = money.AUD
	}
	return money.New(amount, currency).Display()
}

// parseAmount converts a decimal string like "12.34" or "-5" into integer
// minor units, without going through floating point.
func parseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	switch len(frac) {
	case 0:
		frac = "00"
	case 1:
		frac += "0"
	case 2:
	default:
		return 0, fmt.Errorf("amount %q has more than two decimal places", s)
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	v := w*100 + f
	if neg {
		v = -v
	}
	return v, nil
}

func (a *App) listAccounts(ctx context.Context) {
	accounts, err := a.store.Accounts.GetAll(ctx, false)
	if err != nil {
		a.log.Error(ctx, "could not list accounts", "error", err)
		return
	}
	if len(accounts) == 0 {
		fmt.Fprintln(a.out, "No accounts yet (try 'add-account')")
		return
	}
	for _, acc := range accounts {
		fmt.Fprintf(a.out, "%s  %-20s %-10s %s\n",
			acc.ID, acc.Name, acc.Type, formatMoney(acc.Balance, acc.Currency))
	}
}

func (a *App) addAccount(ctx context.Context) {
	name, err := getSimpleText(a.reader, "Account name", a.out)
	if err != nil || name == "" {
		fmt.Fprintln(a.out, "Cancelled")
		return
	}
	kind, err := getSimpleText(a.reader, "Type (checking/savings/credit/...)", a.out)
	if err != nil {
		return
	}
	currency, err := getSimpleText(a.reader, "Currency code (e.g. AUD)", a.out)
	if err != nil {
		return
	}
	balanceStr, err := getSimpleText(a.reader, "Opening balance", a.out)
	if err != nil {
		return
	}
	balance, err := parseAmount(balanceStr)
	if err != nil {
		fmt.Fprintln(a.out, err)
		return
	}

	acc := models.Account{
		ID:       uuid.NewString(),
		Name:     name,
		Type:     kind,
		Currency: strings.ToUpper(currency),
		Balance:  balance,
	}
	saved, err := a.store.Accounts.Save(ctx, acc)
	if err != nil {
		a.log.Error(ctx, "could not save account", "error", err)
		return
	}
	fmt.Fprintf(a.out, "Created account %s\n", saved.ID)
}

func (a *App) listTransactions(ctx context.Context, args []string) {
	txs, err := a.store.Transactions.GetAll(ctx, false)
	if err != nil {
		a.log.Error(ctx, "could not list transactions", "error", err)
		return
	}
	accounts, err := a.store.Accounts.GetAll(ctx, true)
	if err != nil {
		a.log.Error(ctx, "could not list accounts", "error", err)
		return
	}
	currencies := make(map[string]string, len(accounts))
	for _, acc := range accounts {
		currencies[acc.ID] = acc.Currency
	}

	shown := 0
	for _, tx := range txs {
		if len(args) > 0 && tx.AccountID != args[0] {
			continue
		}
		fmt.Fprintf(a.out, "%s  %s  %-30s %-15s %s\n",
			tx.ID, tx.Date, tx.Description, tx.Category, formatMoney(tx.Amount, currencies[tx.AccountID]))
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(a.out, "No transactions")
	}
}

func (a *App) addTransaction(ctx context.Context) {
	accountID, err := getSimpleText(a.reader, "Account ID", a.out)
	if err != nil || accountID == "" {
		fmt.Fprintln(a.out, "Cancelled")
		return
	}
	if _, err := a.store.Accounts.GetByID(ctx, accountID); err != nil {
		fmt.Fprintln(a.out, "No such account:", accountID)
		return
	}
	date, err := getSimpleText(a.reader, "Date (YYYY-MM-DD, empty for today)", a.out)
	if err != nil {
		return
	}
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	description, err := getSimpleText(a.reader, "Description", a.out)
	if err != nil {
		return
	}
	category, err := getSimpleText(a.reader, "Category", a.out)
	if err != nil {
		return
	}
	amountStr, err := getSimpleText(a.reader, "Amount (negative for spending)", a.out)
	if err != nil {
		return
	}
	amount, err := parseAmount(amountStr)
	if err != nil {
		fmt.Fprintln(a.out, err)
		return
	}

	tx := models.Transaction{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		Date:        date,
		Description: description,
		Category:    category,
		Amount:      amount,
	}
	saved, err := a.store.Transactions.Save(ctx, tx)
	if err != nil {
		a.log.Error(ctx, "could not save transaction", "error", err)
		return
	}
	fmt.Fprintf(a.out, "Created transaction %s\n", saved.ID)
}

func (a *App) listBudgets(ctx context.Context) {
	budgets, err := a.store.Budgets.GetAll(ctx, false)
	if err != nil {
		a.log.Error(ctx, "could not list budgets", "error", err)
		return
	}
	if len(budgets) == 0 {
		fmt.Fprintln(a.out, "No budgets")
		return
	}
	for _, b := range budgets {
		fmt.Fprintf(a.out, "%s  %-15s %s/month\n", b.ID, b.Category, formatMoney(b.Limit, b.Currency))
	}
}

func (a *App) addBudget(ctx context.Context) {
	category, err := getSimpleText(a.reader, "Category", a.out)
	if err != nil || category == "" {
		fmt.Fprintln(a.out, "Cancelled")
		return
	}
	currency, err := getSimpleText(a.reader, "Currency code (e.g. AUD)", a.out)
	if err != nil {
		return
	}
	limitStr, err := getSimpleText(a.reader, "Monthly limit", a.out)
	if err != nil {
		return
	}
	limit, err := parseAmount(limitStr)
	if err != nil {
		fmt.Fprintln(a.out, err)
		return
	}

	b := models.Budget{
		ID:       uuid.NewString(),
		Category: category,
		Limit:    limit,
		Currency: strings.ToUpper(currency),
	}
	saved, err := a.store.Budgets.Save(ctx, b)
	if err != nil {
		a.log.Error(ctx, "could not save budget", "error", err)
		return
	}
	fmt.Fprintf(a.out, "Created budget %s\n", saved.ID)
}

// deleteRecord soft deletes so the deletion itself syncs to other devices.
func (a *App) deleteRecord(ctx context.Context, kind, id string) {
	var err error
	switch kind {
	case "account":
		err = a.store.Accounts.SoftDelete(ctx, id)
	case "tx":
		err = a.store.Transactions.SoftDelete(ctx, id)
	case "budget":
		err = a.store.Budgets.SoftDelete(ctx, id)
	case "holding":
		err = a.store.Holdings.SoftDelete(ctx, id)
	case "property":
		err = a.store.Properties.SoftDelete(ctx, id)
	default:
		fmt.Fprintln(a.out, "Unknown record kind:", kind)
		return
	}
	if err != nil {
		fmt.Fprintln(a.out, "Delete failed:", err)
		return
	}
	fmt.Fprintf(a.out, "Deleted %s %s\n", kind, id)
}
