package app

import (
	"github.com/vango-dev/facilityfinder/pkg/router"
)

// Route names. Some names look like paths; they are identifiers only and
// are never matched against a URL.
const (
	RouteHome         = "home"
	RouteAbout        = "about"
	RouteFinder       = "/facility_event"
	RouteFacility     = "FacilityDetail"
	RouteEvent        = "EventDetail"
	RouteLearnEnglish = "/learn_english"
)

// Entries returns the finder's route table. Only the about view is lazy;
// the detail routes forward their id to the view.
func Entries(v *Views) []router.Entry {
	return []router.Entry{
		{Path: "/", Name: RouteHome, View: v.Home, Title: "Home"},
		{Path: "/about", Name: RouteAbout, Load: v.LoadAbout, Title: "About"},
		{Path: "/FindFacility_Event", Name: RouteFinder, View: v.Finder, Title: "Find facilities and events"},
		{Path: "/facility/:id", Name: RouteFacility, View: v.FacilityDetail, Props: true, Title: "Facility"},
		{Path: "/event/:id", Name: RouteEvent, View: v.EventDetail, Props: true, Title: "Event"},
		{Path: "/learnenglish", Name: RouteLearnEnglish, View: v.LearnEnglish, Title: "Learn English"},
	}
}

// Routes registers the route table on r.
func Routes(r *router.Router, v *Views) error {
	return r.Register(Entries(v)...)
}

// NewRouter creates a router for v with the placeholder view installed and
// the route table registered.
func NewRouter(v *Views, opts ...router.Option) (*router.Router, error) {
	opts = append([]router.Option{
		router.WithPlaceholder(v.Placeholder),
		router.WithHistory(router.NewMemoryHistory(v.Base)),
	}, opts...)

	r := router.New(opts...)
	if err := Routes(r, v); err != nil {
		return nil, err
	}
	return r, nil
}
