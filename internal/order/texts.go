package order

import (
	"fmt"

	"github.com/m3rciful/taxibot/internal/pricing"
)

const (
	textGreeting          = "Привіт! На якій вулиці ви знаходитесь?"
	textDestinationStreet = "Введіть назву вулиці, куди ви їдете:"
	textStreetNotFound    = "Вулиця не знайдена. Спробуйте ще раз:"
	textChooseTier        = "Обери тип авто:"
	textConfirmPrompt     = "Підтверджуєте замовлення?"
	textSearching         = "Шукаю водія..."
	textNoDrivers         = "Наразі немає доступних водіїв."
	textUnrecognized      = "Незрозумілий вибір. Будь ласка, оберіть 'Підтверджую' або 'Назад'."
	textEmptyInput        = "Будь ласка, надішліть текст."

	// LabelConfirm and LabelBack are the confirmation keyboard buttons.
	LabelConfirm = "Підтверджую"
	LabelBack    = "Назад"
)

func textHouseNumber(street string) string {
	return fmt.Sprintf("Введіть номер будинку '%s':", street)
}

func textTripSummary(t Trip) string {
	return fmt.Sprintf("Ви виїджаєте з %s до %s в район %s.", t.Origin, t.Destination, t.District)
}

func textTierPrice(tp pricing.TierPrice) string {
	return fmt.Sprintf("Ціна поїздки на %s: %s грн", tp.Tier.Phrase(), tp.Price)
}

func textDriverFound(d fmt.Stringer) string {
	return fmt.Sprintf("Водій вже до вас прямує. %s", d)
}

func tierLabels() []string {
	labels := make([]string, 0, len(pricing.Tiers))
	for _, t := range pricing.Tiers {
		labels = append(labels, t.Label())
	}
	return labels
}
