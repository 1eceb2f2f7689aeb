package bot

import "fmt"

const (
	textError     = "Під час обробки виникла помилка. Спробуйте ще раз."
	textNoOrder   = "Щоб замовити таксі, надішліть /start."
	textCancelled = "Замовлення скасовано. Надішліть /start, щоб почати знову."
	textNotAdmin  = "Ця команда доступна лише адміністратору."
	textBusy      = "Забагато повідомлень. Зачекайте трохи."
	textHelp      = "Я допоможу замовити таксі.\n" +
		"/start - нове замовлення\n" +
		"/cancel - скасувати поточне замовлення\n" +
		"/help - ця довідка"
)

func textStats(s Stats) string {
	return fmt.Sprintf(
		"Активних замовлень: %d\nЧатів в обробці: %d\nВулиць у каталозі: %d\nРайонів у тарифі: %d\nВодіїв: %d\nПідтверджено з запуску: %d\nУ журналі: %d",
		s.Sessions, s.Workers, s.Streets, s.Districts, s.Drivers, s.Confirmed, s.Journaled,
	)
}
