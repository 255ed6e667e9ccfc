package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	app "imaginify/src/app"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users        *app.UserService
	images       *app.ImageService
	transactions *app.TransactionService
}

func NewUserHandler(users *app.UserService, images *app.ImageService, transactions *app.TransactionService) *UserHandler {
	return &UserHandler{users: users, images: images, transactions: transactions}
}

func (u *UserHandler) GetProfile(c *gin.Context) {
	user, err := u.users.GetUserByID(c.Request.Context(), currentUser(c).ClerkID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user)
}

func (u *UserHandler) UpdateProfile(c *gin.Context) {
	var profile app.UserProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		respondMessage(c, http.StatusBadRequest, "can not parse profile: "+err.Error())
		return
	}
	user, err := u.users.UpdateUser(c.Request.Context(), currentUser(c).ClerkID, profile)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user)
}

func (u *UserHandler) GetOwnImages(c *gin.Context) {
	result, err := u.images.GetUserImages(c.Request.Context(), pageParam(c), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

func (u *UserHandler) GetOwnTransactions(c *gin.Context) {
	txs, err := u.transactions.ListTransactions(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, txs)
}

// pageParam reads ?page=, treating anything unparsable as the first page
// and anything too large as the last allowed one.
func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(c.Query("page"), "-") {
		return app.MaxPage
	}
	if err != nil {
		return 1
	}
	return min(max(page, 1), app.MaxPage)
}
