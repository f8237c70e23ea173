package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Congregate/controllers"
	"github.com/Congregate/initializers"
	"github.com/Congregate/middlewares"
	"github.com/Congregate/policy"
	"github.com/Congregate/services"
)

func init() {
	initializers.LoadEnv()
	initializers.ConnectDB()
	services.InitPushNotificationService()
	services.InitEmailService()
}

func main() {
	router := gin.Default()
	router.Use(middlewares.Metrics())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ping", middlewares.RateLimitMiddleware(2, 2, middlewares.ClientIPKey), controllers.Ping)

	router.POST("/login", middlewares.RateLimitMiddleware(2, 2, middlewares.ClientIPKey), controllers.UserLogin)
	router.POST("/signup", middlewares.RateLimitMiddleware(2, 2, middlewares.ClientIPKey), controllers.UserSignup)

	// Password reset endpoints
	router.POST("/auth/forgot-password", middlewares.RateLimitMiddleware(2, 2, middlewares.ClientIPKey), controllers.ForgotPassword)
	router.POST("/auth/verify-reset-code", middlewares.RateLimitMiddleware(5, 5, middlewares.ClientIPKey), controllers.VerifyResetCode)
	router.POST("/auth/reset-password", middlewares.RateLimitMiddleware(2, 2, middlewares.ClientIPKey), controllers.ResetPassword)

	auth := router.Group("/")
	auth.Use(middlewares.CheckAuth)
	auth.Use(middlewares.RateLimitMiddleware(10, 20, middlewares.UserKey))
	{
		// available to pending accounts so they can see their status
		auth.GET("/users/me", controllers.GetUserProfile)
		auth.PATCH("/users/me/password", controllers.ChangeUserPassword)
		auth.POST("/users/push-token", controllers.StorePushToken)
		auth.POST("/people/me", controllers.CompleteProfile)

		// notification inbox
		auth.GET("/users/:user_profile_id/notifications", controllers.GetUserNotifications)
		auth.GET("/users/:user_profile_id/notifications/unread-count", controllers.GetUnreadNotificationCount)
		auth.PATCH("/users/:user_profile_id/notifications/mark-all-read", controllers.MarkAllNotificationsAsRead)
		auth.PATCH("/users/:user_profile_id/notifications/:notification_id", controllers.ToggleUserNotificationStatus)
		auth.DELETE("/users/:user_profile_id/notifications/:notification_id", controllers.DeleteUserNotification)

		member := auth.Group("/")
		member.Use(middlewares.RequireAction(policy.ActionViewContent))
		{
			member.GET("/dashboard", controllers.GetDashboard)
			member.GET("/dashboard/for-you", controllers.GetForYouFeed)

			// directory
			member.GET("/directory", middlewares.RequireAction(policy.ActionViewDirectory), controllers.GetDirectory)
			member.GET("/people/:person_id", middlewares.RequireAction(policy.ActionViewDirectory), controllers.GetPerson)
			member.PATCH("/people/:person_id", controllers.UpdatePerson)
			member.GET("/people/:person_id/tags", controllers.GetPersonTagList)
			member.POST("/people/:person_id/tags/:tag_id", controllers.AssignPersonTag)
			member.DELETE("/people/:person_id/tags/:tag_id", controllers.RemovePersonTag)

			// families
			member.POST("/families", middlewares.RequireAction(policy.ActionManageOwnFamily), controllers.CreateFamilyForSelf)
			member.POST("/families/join", middlewares.RequireAction(policy.ActionManageOwnFamily), controllers.JoinFamilyWithToken)
			member.GET("/families/:family_id", controllers.GetFamily)
			member.GET("/families/:family_id/members", controllers.GetFamilyMembers)
			member.PATCH("/families/:family_id", controllers.UpdateFamily)
			member.POST("/families/:family_id/token", controllers.RotateFamilyToken)

			// tags
			member.GET("/tags", controllers.GetTags)
			member.GET("/tags/people", controllers.GetPeopleByTags)

			// events
			member.GET("/events", controllers.GetEvents)
			member.GET("/events/:event_id", controllers.GetEvent)
			member.GET("/events/:event_id/rsvps", controllers.GetEventRsvps)
			member.GET("/events/:event_id/tags", controllers.GetEventTags)
			member.PUT("/events/:event_id/rsvp", middlewares.RequireAction(policy.ActionRsvp), controllers.RsvpEvent)

			// announcements
			member.GET("/announcements", controllers.GetAnnouncements)
			member.GET("/announcements/grouped", controllers.GetGroupedAnnouncements)
			member.GET("/announcements/unread-count", controllers.GetUnreadAnnouncementCount)
			member.GET("/announcements/:announcement_id", controllers.GetAnnouncement)
			member.GET("/announcements/:announcement_id/tags", controllers.GetAnnouncementTags)
			member.POST("/announcements/:announcement_id/read", controllers.MarkAnnouncementRead)

			// prayer requests
			member.GET("/prayer-requests", middlewares.RequireAction(policy.ActionViewPrayerRequests), controllers.GetPrayerRequests)
			member.POST("/prayer-requests", middlewares.RequireAction(policy.ActionCreatePrayerRequest), controllers.CreatePrayerRequest)
			member.PATCH("/prayer-requests/:prayer_request_id", controllers.UpdatePrayerRequest)
			member.DELETE("/prayer-requests/:prayer_request_id", controllers.DeletePrayerRequest)
			member.POST("/prayer-requests/:prayer_request_id/pray", middlewares.RequireAction(policy.ActionViewPrayerRequests), controllers.PrayForRequest)
		}

		leader := auth.Group("/")
		{
			events := middlewares.RequireAction(policy.ActionManageEvents)
			leader.POST("/events", events, controllers.CreateEvent)
			leader.PATCH("/events/:event_id", events, controllers.UpdateEvent)
			leader.DELETE("/events/:event_id", events, controllers.DeleteEvent)
			leader.PUT("/events/:event_id/tags", events, controllers.SetEventTags)

			announcements := middlewares.RequireAction(policy.ActionManageAnnouncements)
			leader.POST("/announcements", announcements, controllers.CreateAnnouncement)
			leader.PATCH("/announcements/:announcement_id", announcements, controllers.UpdateAnnouncement)
			leader.POST("/announcements/:announcement_id/publish", announcements, controllers.PublishAnnouncement)
			leader.DELETE("/announcements/:announcement_id", announcements, controllers.DeleteAnnouncement)
			leader.PUT("/announcements/:announcement_id/tags", announcements, controllers.SetAnnouncementTags)
		}

		//admin only routes
		admin := auth.Group("/")
		admin.Use(middlewares.RateLimitMiddleware(5, 5, middlewares.UserKey))
		{
			tags := middlewares.RequireAction(policy.ActionManageTags)
			admin.POST("/tags", tags, controllers.CreateTag)
			admin.PATCH("/tags/:tag_id", tags, controllers.UpdateTag)
			admin.DELETE("/tags/:tag_id", tags, controllers.DeleteTag)

			admin.DELETE("/people/:person_id", middlewares.RequireAction(policy.ActionManageAnyPerson), controllers.DeletePerson)
			admin.DELETE("/families/:family_id", middlewares.RequireAction(policy.ActionManageAnyFamily), controllers.DeleteFamily)

			approvals := middlewares.RequireAction(policy.ActionApproveUsers)
			admin.GET("/admin/pending", approvals, controllers.GetPendingUsers)
			admin.PATCH("/admin/users/:user_profile_id/role", approvals, controllers.UpdateUserRole)
			admin.GET("/admin/stats", approvals, controllers.GetAdminStats)

			admin.POST("/admin/broadcast", middlewares.RequireAction(policy.ActionBroadcast), controllers.BroadcastToTags)
		}
	}

	if err := router.Run(); err != nil {
		log.Fatal(err)
	}
}
