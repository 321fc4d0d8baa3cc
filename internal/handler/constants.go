// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler contains the HTTP handlers: authentication, posts,
// comments, follows, rooms, user pages, and the admin surface.
package handler

// Route pattern constants for chi router registration.
const (
	RouteRoot    = "/"
	RouteLogin   = "/login"
	RouteLogout  = "/logout"
	RouteParamID = "/{id}"

	RouteRegister = "/register"
	RouteConfirm  = "/confirm/{token}"
	RouteResend   = "/confirm/resend"
	RouteRecover  = "/recover"
	RouteReset    = "/reset/{token}"
	RouteContact  = "/contact"

	RoutePosts = "/post"
	RouteUsers = "/user"
	RouteRooms = "/rooms"
)

// Redirect targets.
const (
	redirectHome     = "/"
	redirectLogin    = "/login"
	redirectRegister = "/register"
	redirectRecover  = "/recover"
	redirectRooms    = "/rooms"
	redirectAdmin    = "/admin/users"
)

// Form field limits.
const (
	MaxCommentLength  = 500
	MaxPostTitleLen   = 200
	MaxRoomNameLen    = 100
	MaxUploadBytes    = 10 << 20
	MaxAboutMeLength  = 1000
)

// Flash message types rendered by the flash partial.
const (
	flashSuccessType = "success"
	flashErrorType   = "error"
	flashInfoType    = "info"
)
