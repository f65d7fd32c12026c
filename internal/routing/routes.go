// Package routing decides which screen a chat may see for its role.
package routing

import "github.com/luct-reporting/luct-bot/internal/models"

type Path string

const (
	Home         Path = "/"
	Login        Path = "/login"
	Register     Path = "/register"
	Reports      Path = "/reports"
	Courses      Path = "/courses"
	Classes      Path = "/classes"
	Monitoring   Path = "/monitoring"
	Lectures     Path = "/lectures"
	RateStudents Path = "/rate-students"
	RateLectures Path = "/rate-lectures"
	Rating       Path = "/rating"
)

type Link struct {
	Path  Path
	Label string
}

var (
	linkLogin        = Link{Login, "Login"}
	linkRegister     = Link{Register, "Register"}
	linkReports      = Link{Reports, "Reports"}
	linkCourses      = Link{Courses, "Courses"}
	linkClasses      = Link{Classes, "Classes"}
	linkMonitoring   = Link{Monitoring, "Monitoring"}
	linkLectures     = Link{Lectures, "Lectures"}
	linkRateStudents = Link{RateStudents, "Rate Students"}
	linkRateLectures = Link{RateLectures, "Rate Lectures"}
)

var nav = map[models.Role][]Link{
	models.Lecturer: {linkReports, linkClasses, linkRateStudents},
	models.PRL:      {linkReports, linkMonitoring, linkCourses, linkLectures},
	models.Student:  {linkCourses, linkRateLectures},
	models.PL:       {linkReports, linkCourses, linkClasses, linkLectures},
}

// access lists the roles per protected route. Courses is open to every
// signed-in role even where it is not in the nav.
var access = map[Path][]models.Role{
	Reports:      {models.Lecturer, models.PRL, models.PL},
	Courses:      models.Roles,
	Classes:      {models.Lecturer, models.PL},
	Monitoring:   {models.PRL},
	Lectures:     {models.PRL, models.PL},
	RateStudents: {models.Lecturer},
	RateLectures: {models.Student},
	Rating:       {models.Lecturer, models.Student},
}

// Public routes are reachable without a credential.
func Public(p Path) bool {
	return p == Home || p == Login || p == Register
}

// Known reports whether p is in the route table.
func Known(p Path) bool {
	_, ok := access[p]
	return ok || Public(p)
}

// NavLinks returns the menu for a role. Anonymous chats get Login and Register.
func NavLinks(role models.Role, authed bool) []Link {
	if !authed {
		return []Link{linkLogin, linkRegister}
	}
	return append([]Link(nil), nav[role]...)
}

// HomeFor is the first nav link of the role.
func HomeFor(role models.Role, authed bool) Path {
	links := NavLinks(role, authed)
	if len(links) == 0 {
		return Login
	}
	return links[0].Path
}

func Allowed(role models.Role, authed bool, p Path) bool {
	if Public(p) {
		return true
	}
	if !authed {
		return false
	}
	return role.In(access[p]...)
}

// Guard returns where a request for p ends up. The bool is false when
// the request was redirected.
func Guard(role models.Role, authed bool, p Path) (Path, bool) {
	switch {
	case !Known(p):
		return HomeFor(role, authed), false
	case Allowed(role, authed, p):
		return p, true
	case !authed:
		return Login, false
	case p == Reports:
		return RateLectures, false
	default:
		return HomeFor(role, authed), false
	}
}
