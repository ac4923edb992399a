package sqlutil

import (
	"database/sql"
	"net"
	"time"

	"github.com/sqlc-dev/pqtype"
)

// ToSqlTime converts a Go time pointer to sql.NullTime
func ToSqlTime(val *time.Time) sql.NullTime {
	if val == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *val, Valid: true}
}

// FromSqlTime converts sql.NullTime to Go time pointer
func FromSqlTime(val sql.NullTime) *time.Time {
	if !val.Valid {
		return nil
	}
	t := val.Time
	return &t
}

// ToInet converts an IP to a nullable INET value. A nil IP stores NULL.
func ToInet(ip net.IP) pqtype.Inet {
	if ip == nil {
		return pqtype.Inet{Valid: false}
	}
	bits := 32
	if ip.To4() == nil {
		bits = 128
	} else {
		ip = ip.To4()
	}
	return pqtype.Inet{
		IPNet: net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)},
		Valid: true,
	}
}

// FromInet converts a nullable INET value back to an IP.
func FromInet(val pqtype.Inet) net.IP {
	if !val.Valid {
		return nil
	}
	return val.IPNet.IP
}
