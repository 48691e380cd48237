package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/borjaoskins/raffle-backend/internal/models"
	"github.com/borjaoskins/raffle-backend/internal/repositories"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExportService builds plain-text sales reports for the admin console
type ExportService interface {
	BuildReport(ctx context.Context, raffleID primitive.ObjectID) (string, error)
}

type exportService struct {
	raffleRepo repositories.RaffleRepository
	saleRepo   repositories.SaleRepository
}

// NewExportService creates a new ExportService
func NewExportService(raffleRepo repositories.RaffleRepository, saleRepo repositories.SaleRepository) ExportService {
	return &exportService{
		raffleRepo: raffleRepo,
		saleRepo:   saleRepo,
	}
}

var reportSeparator = strings.Repeat("=", 80)

func (s *exportService) BuildReport(ctx context.Context, raffleID primitive.ObjectID) (string, error) {
	raffle, err := s.raffleRepo.FindByID(ctx, raffleID)
	if err != nil {
		return "", err
	}
	sales, err := s.saleRepo.FindByRaffleAndStatuses(ctx, raffleID, models.ConfirmedStatuses)
	if err != nil {
		return "", err
	}
	if len(sales) == 0 {
		return "Nenhuma venda aprovada encontrada.", nil
	}

	numberToName := make(map[int]string)
	total := decimal.Zero
	for _, sale := range sales {
		firstName, _ := splitName(sale.BuyerName)
		for _, num := range sale.Numbers {
			numberToName[num] = firstName
		}
		total = total.Add(sale.PaymentAmount.Decimal)
	}

	soldNumbers := make([]int, 0, len(numberToName))
	for num := range numberToName {
		soldNumbers = append(soldNumbers, num)
	}
	sort.Ints(soldNumbers)

	var b strings.Builder
	fmt.Fprintf(&b, "LISTA DE NÚMEROS - %s\n", raffle.Title)
	fmt.Fprintf(&b, "Data de Exportação: %s\n", time.Now().Format("02/01/2006 15:04:05"))
	fmt.Fprintf(&b, "Total de Números Vendidos: %d\n", len(soldNumbers))
	fmt.Fprintf(&b, "\n%s\n\n", reportSeparator)

	for _, num := range soldNumbers {
		fmt.Fprintf(&b, "%d - %s\n", num, numberToName[num])
	}

	fmt.Fprintf(&b, "\n%s\n\nRESUMO DE COMPRADORES:\n\n", reportSeparator)

	for _, sale := range sales {
		firstName, _ := splitName(sale.BuyerName)
		nums := make([]int, len(sale.Numbers))
		copy(nums, sale.Numbers)
		sort.Ints(nums)
		parts := make([]string, len(nums))
		for i, n := range nums {
			parts[i] = fmt.Sprint(n)
		}
		fmt.Fprintf(&b, "%s: %d número(s) - %s\n", firstName, len(nums), strings.Join(parts, ", "))
	}

	fmt.Fprintf(&b, "\n%s\n", reportSeparator)
	fmt.Fprintf(&b, "\nESTATÍSTICAS:\n")
	fmt.Fprintf(&b, "Total de compradores: %d\n", len(sales))
	fmt.Fprintf(&b, "Total arrecadado: R$ %s\n", total.StringFixed(2))

	return b.String(), nil
}
