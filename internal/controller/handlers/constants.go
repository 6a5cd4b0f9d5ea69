package handlers

// Данные inline кнопок
const (
	CallbackApprove    = "approve:"    // approve:<id>
	CallbackDisapprove = "disapprove:" // disapprove:<id>
	CallbackComplete   = "complete:"   // complete:<id>
)

// PendingListLimit это сколько заявок показывать в /pending
const PendingListLimit = 10

const (
	usageApprove    = "Usage: /approve <request id>"
	usageDisapprove = "Usage: /disapprove <request id>"
	usageCancel     = "Usage: /cancel <request id>"
	usageComplete   = "Usage: /complete <request id>"
	usageReschedule = "Usage: /reschedule <request id> <YYYY-MM-DD> <HH:MM> <online|inperson>"
)
