// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/blogo/internal/auth"
)

// demoPassword is the password for every seeded demo account.
const demoPassword = "demo-password-1"

type demoUser struct {
	username  string
	email     string
	firstName string
	lastName  string
	aboutMe   string
}

var demoUsers = []demoUser{
	{"alice", "alice@demo.test", "Alice", "Hargreaves", "Curious about everything."},
	{"bob", "bob@demo.test", "Bob", "Ferris", "Mostly here for the comments."},
	{"carol", "carol@demo.test", "Carol", "Kaye", "Bass lines and blog posts."},
}

var demoPosts = []struct {
	author string
	title  string
	slug   string
	body   string
}{
	{"alice", "Hello from the demo", "hello-from-the-demo",
		"This instance resets periodically. Feel free to poke around, post and chat."},
	{"alice", "Writing with Markdown", "writing-with-markdown",
		"Posts support **Markdown**: lists, links, code blocks and more."},
	{"carol", "Follow people you like", "follow-people-you-like",
		"Profiles show posts and followers. Follow someone to keep up with them."},
}

// SeedDemo populates sample users, posts, comments, follows and a chat
// room. It is a no-op when any post already exists, so restarts of a
// demo instance do not duplicate content.
func SeedDemo(ctx context.Context, db *sql.DB) error {
	q := New(db)

	count, err := q.CountPosts(ctx)
	if err != nil {
		return fmt.Errorf("counting posts: %w", err)
	}
	if count > 0 {
		return nil
	}

	role, err := q.GetDefaultRole(ctx)
	if err != nil {
		return fmt.Errorf("default role: %w", err)
	}
	hash, err := auth.HashPassword(demoPassword)
	if err != nil {
		return fmt.Errorf("hashing demo password: %w", err)
	}

	now := time.Now().UTC()
	users := make(map[string]User, len(demoUsers))
	for _, du := range demoUsers {
		user, err := q.CreateUser(ctx, CreateUserParams{
			Username:     du.username,
			Email:        du.email,
			PasswordHash: hash,
			FirstName:    du.firstName,
			LastName:     du.lastName,
			AboutMe:      du.aboutMe,
			Confirmed:    true,
			RoleID:       role.ID,
			MemberSince:  now,
			LastSeen:     now,
		})
		if err != nil {
			return fmt.Errorf("creating demo user %s: %w", du.username, err)
		}
		users[du.username] = user
	}

	var firstPost Post
	for i, dp := range demoPosts {
		post, err := q.CreatePost(ctx, CreatePostParams{
			Title:     dp.title,
			Slug:      dp.slug,
			Body:      dp.body,
			AuthorID:  users[dp.author].ID,
			CreatedAt: now.Add(time.Duration(i-len(demoPosts)) * time.Hour),
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("creating demo post %s: %w", dp.slug, err)
		}
		if i == 0 {
			firstPost = post
		}
	}

	if _, err := q.CreateComment(ctx, CreateCommentParams{
		Body:      "Nice to be here!",
		AuthorID:  users["bob"].ID,
		PostID:    firstPost.ID,
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("creating demo comment: %w", err)
	}

	for _, edge := range [][2]string{{"bob", "alice"}, {"carol", "alice"}, {"alice", "carol"}} {
		if err := q.CreateFollow(ctx, CreateFollowParams{
			FollowerID: users[edge[0]].ID,
			FollowedID: users[edge[1]].ID,
			CreatedAt:  now,
		}); err != nil {
			return fmt.Errorf("creating demo follow: %w", err)
		}
	}

	room, err := q.CreateRoom(ctx, CreateRoomParams{
		Name:      "General",
		AuthorID:  users["alice"].ID,
		CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("creating demo room: %w", err)
	}
	for _, name := range []string{"alice", "bob"} {
		if err := q.AddRoomMember(ctx, AddRoomMemberParams{
			UserID:   users[name].ID,
			RoomID:   room.ID,
			JoinedAt: now,
		}); err != nil {
			return fmt.Errorf("adding demo room member: %w", err)
		}
	}

	slog.Info("seeded demo content",
		"users", len(demoUsers), "posts", len(demoPosts), "rooms", 1)
	return nil
}
