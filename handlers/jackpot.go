package handlers

import (
	"content-jackpot-service/middleware"
	"content-jackpot-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupJackpotRoutes(
	app *fiber.App,
	jackpotService *services.JackpotService,
	submissionService *services.SubmissionService,
	settlementService *services.SettlementService,
	payoutService *services.PayoutService,
) {
	// 🔓 Public routes (leaderboards and campaign listings are world-readable)
	app.Get("/jackpots", jackpotService.GetAllJackpots)
	app.Get("/jackpots/:id", jackpotService.GetJackpotByID)
	app.Get("/jackpots/:id/settlement", settlementService.GetSettlement)
	app.Get("/submissions", submissionService.GetSubmissions)

	// Internal cron trigger (gateway token already required app-wide)
	app.Post("/cron/settle", settlementService.SettleExpiredEndpoint)

	// 🔐 Authenticated routes
	secured := app.Group("/", middleware.UserContextMiddleware())

	// Jackpot CRUD
	secured.Post("/jackpots", jackpotService.CreateJackpot)
	secured.Put("/jackpots/:id", jackpotService.UpdateJackpot)
	secured.Delete("/jackpots/:id", jackpotService.DeleteJackpot)

	// Status + assets
	secured.Patch("/jackpots/:id/status", jackpotService.UpdateJackpotStatus)
	secured.Post("/jackpots/:id/thumbnail", jackpotService.UploadThumbnail)

	// Payout after settlement
	secured.Post("/jackpots/:id/pay", payoutService.PayJackpot)

	// Submissions
	secured.Post("/submissions", submissionService.CreateSubmission)
	secured.Patch("/submissions/:id", submissionService.UpdateSubmission)
	secured.Delete("/submissions/:id", submissionService.DeleteSubmission)
}
