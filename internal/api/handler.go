// Package api exposes the action-dispatched endpoint the front end talks
// to. Every action is a POST to the same route carrying an "action" field;
// every reply is a {success, message, ...} envelope with the full state.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourname/dailywords/internal"
	"github.com/yourname/dailywords/internal/response"
	"github.com/yourname/dailywords/internal/service"
	"github.com/yourname/dailywords/internal/session"
)

// HandleAction dispatches the single app endpoint.
func HandleAction(ex *service.Exchange, sessions *session.Manager, logger internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetString(ctxSessionToken)
		sess, _ := sessions.Get(token)

		switch c.PostForm("action") {
		case "initialize_app":
			initializeApp(c, ex, sessions, token, sess, logger)
		case "login":
			login(c, ex, sessions, token, sess, logger)
		case "switch_user":
			switchUser(c, ex, sessions, token, sess, logger)
		case "set_password":
			setPassword(c, ex, sess, logger)
		case "submit_evaluation":
			submitEvaluation(c, ex, sess, logger)
		case "mark_evaluation_viewed":
			markViewed(c, ex, sess, logger)
		case "change_calendar_month":
			changeCalendarMonth(c, ex, logger)
		default:
			c.JSON(http.StatusBadRequest, response.Failure("invalid action"))
		}
	}
}

func initializeApp(c *gin.Context, ex *service.Exchange, sessions *session.Manager, token string, sess session.Context, logger internal.Logger) {
	newSess, res, err := ex.Initialize(c.Request.Context(), sess)
	if err != nil {
		HandleError(c, logger, err)
		return
	}
	sessions.Put(token, newSess)

	body := response.Success("app initialized").
		With("activeUserSessionKey", nullableKey(res.ActiveUserKey)).
		With("appData", res.State).
		With("calendar", res.Calendar)
	if res.PendingLoginUserKey != "" {
		body = body.With("pendingLoginAttemptUserKey", res.PendingLoginUserKey)
	}
	c.JSON(http.StatusOK, body)
}

func login(c *gin.Context, ex *service.Exchange, sessions *session.Manager, token string, sess session.Context, logger internal.Logger) {
	userKey := c.PostForm("userKey")
	password := c.PostForm("password")

	newSess, userName, err := ex.Login(c.Request.Context(), sess, userKey, password)
	if err != nil {
		HandleError(c, logger, err)
		return
	}
	sessions.Put(token, newSess)

	c.JSON(http.StatusOK, response.Success("login successful").
		With("activeUserSessionKey", newSess.ActiveUserKey).
		With("userName", userName))
}

func switchUser(c *gin.Context, ex *service.Exchange, sessions *session.Manager, token string, sess session.Context, logger internal.Logger) {
	newSess, _, err := ex.RequestSwitch(c.Request.Context(), sess)
	if err != nil {
		HandleError(c, logger, err)
		return
	}
	sessions.Put(token, newSess)

	c.JSON(http.StatusOK, response.Success("switching user"))
}

func setPassword(c *gin.Context, ex *service.Exchange, sess session.Context, logger internal.Logger) {
	if err := ex.SetPassword(c.Request.Context(), sess, c.PostForm("newPassword")); err != nil {
		HandleError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("password updated"))
}

func submitEvaluation(c *gin.Context, ex *service.Exchange, sess session.Context, logger internal.Logger) {
	var req service.SubmitRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Failure("score must be 1-10 and text must not be empty"))
		return
	}

	state, err := ex.Submit(c.Request.Context(), sess, &req)
	if err != nil {
		HandleError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("evaluation submitted").
		With("appData", state))
}

func markViewed(c *gin.Context, ex *service.Exchange, sess session.Context, logger internal.Logger) {
	state, viewedAt, err := ex.MarkViewed(c.Request.Context(), sess)
	if err != nil {
		HandleError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("evaluation marked as viewed").
		With("appData", state).
		With("viewedTimestamp", viewedAt))
}

func changeCalendarMonth(c *gin.Context, ex *service.Exchange, logger internal.Logger) {
	state, newDate, err := ex.ShiftMonth(c.Request.Context(), c.PostForm("direction"))
	if err != nil {
		HandleError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("calendar month changed").
		With("newCalendarDate", newDate).
		With("appData", state))
}

// nullableKey renders an absent identity as JSON null rather than "".
func nullableKey(key string) interface{} {
	if key == "" {
		return nil
	}
	return key
}
