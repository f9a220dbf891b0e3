package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/semillero/core/classroom"
	"github.com/trezcool/semillero/core/profile"
	"github.com/trezcool/semillero/core/reminder"
)

type profileApi struct {
	service *reminder.Service
}

func registerProfileAPI(g *echo.Group, svc *reminder.Service) {
	api := profileApi{service: svc}

	g.GET("/profile", api.get)
	g.POST("/profile", api.update)
	g.POST("/profile/test-notification", api.testNotification)
	g.GET("/scheduler/stats", api.stats, roleMiddleware(classroom.RoleCoordinator))
}

// Handlers

func (api *profileApi) get(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	p, err := api.service.Profile(ctx.Request().Context(), sess.Identity)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

// update also re-registers the caller's session so reminders run with their latest token.
func (api *profileApi) update(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var upd profile.Update
	if err = ctx.Bind(&upd); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	p, err := api.service.RegisterProfile(rctx, sess.Identity, upd)
	if err != nil {
		return err
	}
	if err = api.service.RegisterSession(rctx, sess); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"message": "Perfil actualizado correctamente",
		"profile": p,
	})
}

func (api *profileApi) testNotification(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	if err = api.service.RegisterSession(rctx, sess); err != nil {
		return err
	}

	res, err := api.service.TriggerTestNotification(rctx, sess.Identity)
	if err != nil {
		return err
	}
	if !res.Success {
		return ctx.JSON(http.StatusInternalServerError, echo.Map{"error": res.Message, "details": res})
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"message": "Notificación de prueba enviada correctamente",
		"details": res,
	})
}

func (api *profileApi) stats(ctx echo.Context) error {
	stats, err := api.service.Stats(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stats)
}
