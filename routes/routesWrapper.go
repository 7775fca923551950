package routes

import (
	"github.com/julienschmidt/httprouter"
)

func RoutesWrapper(router *httprouter.Router, d Deps) {
	AddMiscRoutes(router, d)
	AddPostRoutes(router, d)
	AddRecipeRoutes(router, d)
	AddSEORoutes(router, d)
	AddStaticRoutes(router, d)
	AddTagRoutes(router, d)
}
