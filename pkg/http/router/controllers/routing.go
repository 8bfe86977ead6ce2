package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/julienschmidt/httprouter"
	helper "github.com/lintang-b-s/trafficx/pkg/http/router/routerhelper"
	"github.com/lintang-b-s/trafficx/pkg/overlay"
	"go.uber.org/zap"
)

type routingAPI struct {
	routingService RoutingService
	overlayService OverlayService
	log            *zap.Logger
}

func New(routingService RoutingService, overlayService OverlayService, log *zap.Logger) *routingAPI {
	return &routingAPI{
		routingService: routingService,
		overlayService: overlayService,
		log:            log,
	}
}

func (api *routingAPI) Routes(group *helper.RouteGroup) {
	group.GET("/route", api.route)
	group.GET("/info/traffic", api.trafficInfo)
	group.GET("/info/traffic/debug", api.trafficDebug)
	group.POST("/refresh/:feed", api.refreshFeed)
}

func queryBool(query url.Values, key string, fallback bool) (bool, error) {
	raw := query.Get(key)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a valid bool", key)
	}
	return value, nil
}

func (api *routingAPI) route(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var (
		request routeRequest
		err     error
	)

	query := r.URL.Query()

	request.OriginLat, err = strconv.ParseFloat(query.Get("origin_lat"), 64)
	if err != nil {
		api.BadRequestResponse(w, r, errors.New("origin_lat is required and must be a valid float"))
		return
	}
	request.OriginLon, err = strconv.ParseFloat(query.Get("origin_lon"), 64)
	if err != nil {
		api.BadRequestResponse(w, r, errors.New("origin_lon is required and must be a valid float"))
		return
	}
	request.DestinationLat, err = strconv.ParseFloat(query.Get("destination_lat"), 64)
	if err != nil {
		api.BadRequestResponse(w, r, errors.New("destination_lat is required and must be a valid float"))
		return
	}
	request.DestinationLon, err = strconv.ParseFloat(query.Get("destination_lon"), 64)
	if err != nil {
		api.BadRequestResponse(w, r, errors.New("destination_lon is required and must be a valid float"))
		return
	}

	request.Profile = query.Get("profile")
	if request.Profile == "" {
		request.Profile = string(overlay.ProfileCar)
	}

	if raw := query.Get("car_type_id"); raw != "" {
		request.CarTypeID, err = strconv.Atoi(raw)
		if err != nil {
			api.BadRequestResponse(w, r, errors.New("car_type_id must be a valid int"))
			return
		}
	}

	if request.AvoidEdsRoads, err = queryBool(query, "avoid_eds_roads", false); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if request.AvoidCustomAreas, err = queryBool(query, "avoid_custom_areas", false); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if request.EnableSpeedLimits, err = queryBool(query, "enable_speed_limits", true); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if request.TrafficAware, err = queryBool(query, "traffic_aware", true); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if request.AlternativeRoute, err = queryBool(query, "alternative_route", false); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	validate := validator.New()
	if err := validate.Struct(request); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		vvString := []string{}
		for _, v := range vv {
			vvString = append(vvString, v.Error())
		}
		api.BadRequestResponse(w, r, fmt.Errorf("validation error: %v", vvString))
		return
	}

	hints := overlay.NewHints().
		With(overlay.HintAvoidEdsRoads, request.AvoidEdsRoads).
		With(overlay.HintAvoidCustomAreas, request.AvoidCustomAreas).
		With(overlay.HintEnableSpeedLimits, request.EnableSpeedLimits).
		With(overlay.HintCarTypeID, request.CarTypeID).
		With(overlay.HintTrafficAware, request.TrafficAware).
		With(overlay.HintAlternativeRoute, request.AlternativeRoute)

	routes, flags, degraded, err := api.routingService.Route(request.OriginLat, request.OriginLon,
		request.DestinationLat, request.DestinationLon,
		overlay.NewRouteRequest(overlay.Profile(request.Profile), hints))
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewRouteResponse(routes, flags,
		degraded)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *routingAPI) trafficInfo(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	running, entries, stats, now := api.overlayService.TrafficInfo()

	headers := make(http.Header)

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewTrafficInfoResponse(running,
		entries, stats, now)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *routingAPI) trafficDebug(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	running, entries, stats, samples, now := api.overlayService.TrafficDebug()

	headers := make(http.Header)

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewTrafficDebugResponse(running,
		entries, stats, samples, now)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *routingAPI) refreshFeed(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	feedName := p.ByName("feed")

	if err := api.overlayService.Refresh(r.Context(), feedName); err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewRefreshResponse(feedName)},
		headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}
