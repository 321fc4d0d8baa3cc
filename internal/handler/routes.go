// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blogo/internal/cache"
	"github.com/olegiv/blogo/internal/middleware"
	"github.com/olegiv/blogo/internal/model"
	"github.com/olegiv/blogo/internal/service"
)

// Handlers bundles the per-area handlers for route registration.
type Handlers struct {
	Auth    *AuthHandler
	Home    *HomeHandler
	Posts   *PostHandler
	Comment *CommentHandler
	Follow  *FollowHandler
	Users   *UserHandler
	Rooms   *RoomHandler
	Admin   *AdminHandler
	SEO     *SEOHandler
}

// Register mounts every application route on the router. The caller
// has already attached session loading and CSRF; Register adds the
// per-group authentication and permission gates. lp, when non-nil,
// rate limits login submissions per IP.
func Register(r chi.Router, h Handlers, sm *scs.SessionManager, db *sql.DB,
	roles *cache.RoleCache, events *service.EventService, lp *middleware.LoginProtection) {

	// Crawler artifacts. No session or user context needed.
	r.Get("/robots.txt", h.SEO.Robots)
	r.Get("/sitemap.xml", h.SEO.Sitemap)
	r.Get("/.well-known/security.txt", h.SEO.SecurityTxt)

	// Public pages. The user is loaded when a session exists so pages
	// can personalize, but nothing here requires login.
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalLoadUser(sm, db))

		r.Get(RouteRoot, h.Home.Home)
		r.Get(RouteContact, h.Home.ContactForm)
		r.Post(RouteContact, h.Home.Contact)

		r.Get(RouteLogin, h.Auth.LoginForm)
		if lp != nil {
			r.With(lp.Middleware()).Post(RouteLogin, h.Auth.Login)
		} else {
			r.Post(RouteLogin, h.Auth.Login)
		}
		r.Get(RouteRegister, h.Auth.RegisterForm)
		r.Post(RouteRegister, h.Auth.Register)
		r.Get(RouteRecover, h.Auth.RecoverForm)
		r.Post(RouteRecover, h.Auth.Recover)
		r.Get(RouteReset, h.Auth.ResetForm)
		r.Post(RouteReset, h.Auth.Reset)

		r.Get("/post/{id}", h.Posts.ShowPost)
		r.Get("/user/{username}", h.Users.Profile)
		r.Get("/user/{username}/followers", h.Follow.Followers)
		r.Get("/user/{username}/following", h.Follow.Following)
	})

	// Authenticated pages.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(sm))
		r.Use(middleware.LoadUser(sm, db))

		r.Get(RouteLogout, h.Auth.Logout)
		r.Get(RouteConfirm, h.Auth.Confirm)
		r.Get(RouteResend, h.Auth.ResendConfirmation)
		r.Get("/user/edit", h.Users.EditProfileForm)
		r.Post("/user/edit", h.Users.EditProfile)
		r.Get("/users/online", h.Users.OnlineUsers)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermissionWithEventLog(roles, model.PermFollow, events))
			r.Post("/user/{username}/follow", h.Follow.Follow)
			r.Post("/user/{username}/unfollow", h.Follow.Unfollow)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermissionWithEventLog(roles, model.PermWrite, events))
			r.Get("/post/new", h.Posts.NewPostForm)
			r.Post("/post/new", h.Posts.CreatePost)
			r.Get("/post/{id}/edit", h.Posts.EditPostForm)
			r.Post("/post/{id}/edit", h.Posts.UpdatePost)
			r.Post("/post/{id}/delete", h.Posts.DeletePost)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermissionWithEventLog(roles, model.PermComment, events))
			r.Post("/post/{id}/comment", h.Comment.CreateComment)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireModerator(roles))
			r.Get("/moderate", h.Comment.Moderate)
			r.Post("/comment/{id}/disable", h.Comment.DisableComment)
			r.Post("/comment/{id}/enable", h.Comment.EnableComment)
			r.Get("/comment/{id}/edit", h.Comment.EditCommentForm)
			r.Post("/comment/{id}/edit", h.Comment.EditComment)
		})

		r.Get(RouteRooms, h.Rooms.Rooms)
		r.Get("/rooms/new", h.Rooms.NewRoomForm)
		r.Post("/rooms/new", h.Rooms.CreateRoom)
		r.Get("/rooms/{id}", h.Rooms.ShowRoom)
		r.Post("/rooms/{id}/join", h.Rooms.JoinRoom)
		r.Post("/rooms/{id}/leave", h.Rooms.LeaveRoom)
		r.Post("/rooms/{id}/delete", h.Rooms.DeleteRoom)
		r.Get("/ws/rooms/{id}", h.Rooms.ServeWS)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(roles))
			r.Get("/admin/users", h.Users.AdminUsers)
			r.Get("/admin/users/{id}", h.Users.AdminEditUserForm)
			r.Post("/admin/users/{id}", h.Users.AdminEditUser)
			r.Post("/admin/users/{id}/delete", h.Users.AdminDeleteUser)
			r.Post("/admin/users/{id}/undelete", h.Users.AdminUndeleteUser)
			r.Get("/admin/events", h.Admin.Events)
		})
	})
}
