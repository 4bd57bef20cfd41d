package stubserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"social-client/internal/models"
)

// ---- auth / users ----

func (s *Server) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	password, known := s.passwords[req.Email]
	if !known || password != req.Password {
		fail(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	var user models.User
	for _, u := range s.users {
		if u.Email == req.Email {
			user = u
			break
		}
	}

	token := newToken()
	s.tokens[token] = user.ID
	ok(c, models.Credentials{User: user, AccessToken: token})
}

func (s *Server) register(c *gin.Context) {
	var req struct {
		Username  string `json:"username" binding:"required"`
		Email     string `json:"email" binding:"required"`
		Password  string `json:"password" binding:"required"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.passwords[req.Email]; taken {
		fail(c, http.StatusConflict, "user already exists")
		return
	}

	user := models.User{
		ID:        s.nextIDLocked("user"),
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	s.users[user.ID] = user
	s.passwords[req.Email] = req.Password

	token := newToken()
	s.tokens[token] = user.ID
	ok(c, models.Credentials{User: user, AccessToken: token})
}

func (s *Server) me(c *gin.Context) {
	userID := c.GetString("userID")

	s.mu.Lock()
	user, known := s.users[userID]
	s.mu.Unlock()
	if !known {
		fail(c, http.StatusNotFound, "user not found")
		return
	}
	ok(c, user)
}

func (s *Server) profile(c *gin.Context) {
	s.mu.Lock()
	user, known := s.users[c.Param("user_id")]
	s.mu.Unlock()
	if !known {
		fail(c, http.StatusNotFound, "user not found")
		return
	}
	ok(c, user)
}

// ---- posts ----

func (s *Server) feed(c *gin.Context) {
	userID := c.GetString("userID")
	limit := queryInt(c, "limit", 20)
	offset := 0
	if cursor := c.Query("cursor"); cursor != "" {
		parsed, err := strconv.Atoi(cursor)
		if err != nil {
			fail(c, http.StatusBadRequest, "invalid cursor")
			return
		}
		offset = parsed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if offset > len(s.posts) {
		offset = len(s.posts)
	}
	end := offset + limit
	if end > len(s.posts) {
		end = len(s.posts)
	}

	page := make([]models.Post, 0, end-offset)
	for _, post := range s.posts[offset:end] {
		post.IsLiked = s.postLikes[post.ID][userID]
		post.LikeCount = len(s.postLikes[post.ID])
		author := s.users[post.AuthorID]
		post.Author = &author
		page = append(page, post)
	}

	hasMore := end < len(s.posts)
	nextCursor := ""
	if hasMore {
		nextCursor = strconv.Itoa(end)
	}
	okPage(c, page, nextCursor, hasMore)
}

func (s *Server) createPost(c *gin.Context) {
	var req struct {
		Content    string `json:"content" binding:"required"`
		MediaURL   string `json:"mediaUrl"`
		Visibility string `json:"visibility"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	post := models.Post{
		ID:         s.nextIDLocked("post"),
		AuthorID:   c.GetString("userID"),
		Content:    req.Content,
		Visibility: req.Visibility,
		CreatedAt:  time.Now(),
	}
	if req.MediaURL != "" {
		post.MediaURL = &req.MediaURL
	}
	s.posts = append([]models.Post{post}, s.posts...)
	s.mu.Unlock()

	ok(c, post)
}

func (s *Server) deletePost(c *gin.Context) {
	postID := c.Param("post_id")
	userID := c.GetString("userID")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, post := range s.posts {
		if post.ID != postID {
			continue
		}
		if post.AuthorID != userID {
			fail(c, http.StatusForbidden, "not the author")
			return
		}
		s.posts = append(s.posts[:i], s.posts[i+1:]...)
		ok(c, gin.H{"deleted": postID})
		return
	}
	fail(c, http.StatusNotFound, "post not found")
}

func (s *Server) likePost(c *gin.Context) {
	s.setPostLike(c, true)
}

func (s *Server) unlikePost(c *gin.Context) {
	s.setPostLike(c, false)
}

func (s *Server) setPostLike(c *gin.Context, liked bool) {
	postID := c.Param("post_id")
	userID := c.GetString("userID")

	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for _, post := range s.posts {
		if post.ID == postID {
			found = true
			break
		}
	}
	if !found {
		fail(c, http.StatusNotFound, "post not found")
		return
	}

	if s.postLikes[postID] == nil {
		s.postLikes[postID] = make(map[string]bool)
	}
	if liked {
		s.postLikes[postID][userID] = true
	} else {
		delete(s.postLikes[postID], userID)
	}
	ok(c, gin.H{"liked": liked})
}

// ---- comments ----

func (s *Server) listComments(c *gin.Context) {
	postID := c.Query("postId")
	parentID := c.Query("parentId")
	userID := c.GetString("userID")
	limit := queryInt(c, "limit", 20)

	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]models.Comment, 0)
	for _, comment := range s.comments {
		if postID != "" && comment.PostID != postID {
			continue
		}
		if postID != "" && comment.ParentID != nil {
			continue
		}
		if parentID != "" && (comment.ParentID == nil || *comment.ParentID != parentID) {
			continue
		}
		comment.IsLiked = s.commentLikes[comment.ID][userID]
		comment.LikeCount = len(s.commentLikes[comment.ID])
		matched = append(matched, comment)
		if len(matched) == limit {
			break
		}
	}
	okPage(c, matched, "", false)
}

func (s *Server) createComment(c *gin.Context) {
	var req struct {
		PostID   string `json:"postId" binding:"required"`
		Content  string `json:"content" binding:"required"`
		ParentID string `json:"parentId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	comment := models.Comment{
		ID:        s.nextIDLocked("comment"),
		PostID:    req.PostID,
		AuthorID:  c.GetString("userID"),
		Content:   req.Content,
		CreatedAt: time.Now(),
	}
	if req.ParentID != "" {
		comment.ParentID = &req.ParentID
	}
	s.comments = append(s.comments, comment)
	s.mu.Unlock()

	ok(c, comment)
}

func (s *Server) deleteComment(c *gin.Context) {
	commentID := c.Param("comment_id")
	userID := c.GetString("userID")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, comment := range s.comments {
		if comment.ID != commentID {
			continue
		}
		if comment.AuthorID != userID {
			fail(c, http.StatusForbidden, "not the author")
			return
		}
		s.comments = append(s.comments[:i], s.comments[i+1:]...)
		ok(c, gin.H{"deleted": commentID})
		return
	}
	fail(c, http.StatusNotFound, "comment not found")
}

func (s *Server) likeComment(c *gin.Context) {
	s.setCommentLike(c, true)
}

func (s *Server) unlikeComment(c *gin.Context) {
	s.setCommentLike(c, false)
}

func (s *Server) setCommentLike(c *gin.Context, liked bool) {
	commentID := c.Param("comment_id")
	userID := c.GetString("userID")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.commentLikes[commentID] == nil {
		s.commentLikes[commentID] = make(map[string]bool)
	}
	if liked {
		s.commentLikes[commentID][userID] = true
	} else {
		delete(s.commentLikes[commentID], userID)
	}
	ok(c, gin.H{"liked": liked})
}

// ---- follow graph ----

func (s *Server) follow(c *gin.Context) {
	targetID := c.Param("user_id")
	userID := c.GetString("userID")
	if targetID == userID {
		fail(c, http.StatusBadRequest, "cannot follow yourself")
		return
	}

	s.mu.Lock()
	s.followLocked(userID, targetID)
	s.mu.Unlock()
	ok(c, gin.H{"following": true})
}

func (s *Server) unfollow(c *gin.Context) {
	s.mu.Lock()
	delete(s.follows[c.GetString("userID")], c.Param("user_id"))
	s.mu.Unlock()
	ok(c, gin.H{"following": false})
}

func (s *Server) followStatus(c *gin.Context) {
	s.mu.Lock()
	following := s.follows[c.GetString("userID")][c.Param("user_id")]
	s.mu.Unlock()
	ok(c, gin.H{"following": following})
}

func (s *Server) following(c *gin.Context) {
	s.mu.Lock()
	users := make([]models.User, 0)
	for followee := range s.follows[c.Param("user_id")] {
		users = append(users, s.users[followee])
	}
	s.mu.Unlock()
	ok(c, users)
}

func (s *Server) followers(c *gin.Context) {
	target := c.Param("user_id")
	s.mu.Lock()
	users := make([]models.User, 0)
	for follower, followees := range s.follows {
		if followees[target] {
			users = append(users, s.users[follower])
		}
	}
	s.mu.Unlock()
	ok(c, users)
}

// ---- notifications ----

func (s *Server) listNotifications(c *gin.Context) {
	limit := queryInt(c, "limit", 50)

	s.mu.Lock()
	inbox := s.notifications[c.GetString("userID")]
	if len(inbox) > limit {
		inbox = inbox[:limit]
	}
	items := make([]models.Notification, len(inbox))
	copy(items, inbox)
	s.mu.Unlock()
	ok(c, items)
}

func (s *Server) markNotificationRead(c *gin.Context) {
	notificationID := c.Param("notification_id")
	userID := c.GetString("userID")

	s.mu.Lock()
	defer s.mu.Unlock()
	inbox := s.notifications[userID]
	for i := range inbox {
		if inbox[i].ID == notificationID {
			inbox[i].IsRead = true
			ok(c, gin.H{"read": notificationID})
			return
		}
	}
	fail(c, http.StatusNotFound, "notification not found")
}

func (s *Server) markAllNotificationsRead(c *gin.Context) {
	userID := c.GetString("userID")

	s.mu.Lock()
	inbox := s.notifications[userID]
	for i := range inbox {
		inbox[i].IsRead = true
	}
	s.mu.Unlock()
	ok(c, gin.H{"read": "all"})
}

// ---- media ----

func (s *Server) uploadMedia(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "missing file")
		return
	}
	ok(c, gin.H{"url": "https://media.stub.local/" + file.Filename})
}

// ---- chat ----

func (s *Server) createOrGetRoom(c *gin.Context) {
	var req struct {
		Participants []string `json:"participants" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Participants) != 2 {
		fail(c, http.StatusBadRequest, "rooms hold exactly two participants")
		return
	}

	s.mu.Lock()
	room, found := s.roomForLocked(req.Participants)
	if !found {
		room = models.Room{
			ID:           s.nextIDLocked("room"),
			Participants: req.Participants,
			CreatedAt:    time.Now(),
		}
		s.rooms = append(s.rooms, room)
	}
	s.mu.Unlock()
	ok(c, room)
}

func (s *Server) roomMessages(c *gin.Context) {
	roomID := c.Param("room_id")
	limit := queryInt(c, "limit", 50)

	s.mu.Lock()
	history := s.messages[roomID]
	// most recent first, bounded
	recent := make([]models.Message, 0, limit)
	for i := len(history) - 1; i >= 0 && len(recent) < limit; i-- {
		recent = append(recent, history[i])
	}
	s.mu.Unlock()
	ok(c, recent)
}

func (s *Server) sendMessage(c *gin.Context) {
	roomID := c.Param("room_id")
	userID := c.GetString("userID")

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	var room *models.Room
	for i := range s.rooms {
		if s.rooms[i].ID == roomID {
			room = &s.rooms[i]
			break
		}
	}
	if room == nil {
		s.mu.Unlock()
		fail(c, http.StatusNotFound, "room not found")
		return
	}

	receiverID := ""
	for _, participant := range room.Participants {
		if participant != userID {
			receiverID = participant
		}
	}

	message := models.Message{
		ID:         s.nextIDLocked("msg"),
		RoomID:     roomID,
		SenderID:   userID,
		ReceiverID: receiverID,
		Content:    req.Content,
		CreatedAt:  time.Now(),
	}
	s.messages[roomID] = append(s.messages[roomID], message)
	s.mu.Unlock()

	s.hub.broadcastNewMessage(roomID, message)
	ok(c, message)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
