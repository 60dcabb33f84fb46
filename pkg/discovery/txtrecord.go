package discovery

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// TXTRecordMap represents TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeLockTXT builds the TXT records of a lock.
func EncodeLockTXT(info *LockInfo) TXTRecordMap {
	txt := TXTRecordMap{
		TXTKeyName:    info.Name,
		TXTKeyVersion: ProtocolVersion,
	}
	if len(info.Services) > 0 {
		ids := make([]string, len(info.Services))
		for i, s := range info.Services {
			ids[i] = s.String()
		}
		txt[TXTKeyServices] = strings.Join(ids, ",")
	}
	return txt
}

// DecodeLockTXT parses the TXT records of a lock. A missing name is
// allowed; the caller falls back to the instance name.
func DecodeLockTXT(txt TXTRecordMap) (*LockInfo, error) {
	info := &LockInfo{Name: txt[TXTKeyName]}

	if v, ok := txt[TXTKeyVersion]; ok && v != ProtocolVersion {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrInvalidTXT, v)
	}
	if svc := txt[TXTKeyServices]; svc != "" {
		for _, s := range strings.Split(svc, ",") {
			id, err := uuid.Parse(strings.TrimSpace(s))
			if err != nil {
				return nil, fmt.Errorf("%w: service %q: %v", ErrInvalidTXT, s, err)
			}
			info.Services = append(info.Services, id)
		}
	}
	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to sorted "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(result)
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}
