// Package hass publishes entity states to a Home Assistant instance via
// its REST API (POST and DELETE on /api/states/<entity_id>, authenticated
// with a long-lived access token).
package hass
