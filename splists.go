package splists

import (
	"fmt"
	"strings"
)

// UserAgent is sent by the HTTP transport unless overridden.
const UserAgent = "go-splists/" + Version

// Service identifies one of the site-relative ASMX endpoints.
type Service string

// Known SharePoint web services.
const (
	ServiceAlerts         Service = "Alerts"
	ServiceAuthentication Service = "Authentication"
	ServiceCopy           Service = "Copy"
	ServiceDws            Service = "Dws"
	ServiceForms          Service = "Forms"
	ServiceImaging        Service = "Imaging"
	ServiceDspSts         Service = "DspSts"
	ServiceLists          Service = "Lists"
	ServiceMeetings       Service = "Meetings"
	ServicePeople         Service = "People"
	ServicePermissions    Service = "Permissions"
	ServiceSiteData       Service = "SiteData"
	ServiceSites          Service = "Sites"
	ServiceSearch         Service = "Search"
	ServiceUserGroup      Service = "UserGroup"
	ServiceVersions       Service = "Versions"
	ServiceViews          Service = "Views"
	ServiceWebPartPages   Service = "WebPartPages"
	ServiceWebs           Service = "Webs"
)

var servicePaths = map[Service]string{
	ServiceAlerts:         "/_vti_bin/Alerts.asmx",
	ServiceAuthentication: "/_vti_bin/Authentication.asmx",
	ServiceCopy:           "/_vti_bin/Copy.asmx",
	ServiceDws:            "/_vti_bin/Dws.asmx",
	ServiceForms:          "/_vti_bin/Forms.asmx",
	ServiceImaging:        "/_vti_bin/Imaging.asmx",
	ServiceDspSts:         "/_vti_bin/DspSts.asmx",
	ServiceLists:          "/_vti_bin/lists.asmx",
	ServiceMeetings:       "/_vti_bin/Meetings.asmx",
	ServicePeople:         "/_vti_bin/People.asmx",
	ServicePermissions:    "/_vti_bin/Permissions.asmx",
	ServiceSiteData:       "/_vti_bin/SiteData.asmx",
	ServiceSites:          "/_vti_bin/Sites.asmx",
	ServiceSearch:         "/_vti_bin/Search.asmx",
	ServiceUserGroup:      "/_vti_bin/usergroup.asmx",
	ServiceVersions:       "/_vti_bin/Versions.asmx",
	ServiceViews:          "/_vti_bin/Views.asmx",
	ServiceWebPartPages:   "/_vti_bin/WebPartPages.asmx",
	ServiceWebs:           "/_vti_bin/Webs.asmx",
}

// Path returns the site-relative path of the service endpoint.
func (s Service) Path() (string, bool) {
	p, ok := servicePaths[s]
	return p, ok
}

// ServiceURL joins a site URL and the endpoint path of a service.
func ServiceURL(siteURL string, s Service) (string, error) {
	p, ok := s.Path()
	if !ok {
		return "", fmt.Errorf("unknown service %q", string(s))
	}
	return strings.TrimRight(siteURL, "/") + p, nil
}
