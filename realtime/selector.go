package realtime

import (
	"path"

	"github.com/pkg/errors"
)

// ErrUnresolvedPath is returned when a selector cannot be mapped to a storage
// path, e.g. a connection list without a parent key or a user list without a
// signed in user.
var ErrUnresolvedPath = errors.New("realtime: unable to resolve list path")

// Selector picks which list of keys a list shows. It is one of
// [ConnectionList], [UserList] or [PublicList].
type Selector interface {
	selector()
}

// ConnectionList lists the keys connected to a parent record.
type ConnectionList struct {
	ParentType string
	ParentKey  string
	// ConnectionType, when set, lists a connection type other than the data
	// type being hydrated.
	ConnectionType string
}

// UserList lists the keys owned by the signed in user.
type UserList struct{}

// PublicList lists the public keys of a data type.
type PublicList struct{}

func (ConnectionList) selector() {}
func (UserList) selector()       {}
func (PublicList) selector()     {}

// ResolvePath maps a selector to the storage path of its key list.
func ResolvePath(sel Selector, dataType, userID string) (string, error) {
	if dataType == "" {
		return "", errors.Wrap(ErrUnresolvedPath, "missing data type")
	}
	switch s := sel.(type) {
	case ConnectionList:
		if s.ParentType == "" || s.ParentKey == "" {
			return "", errors.Wrapf(ErrUnresolvedPath, "connection list of %s needs a parent type and key", dataType)
		}
		childType := dataType
		if s.ConnectionType != "" {
			childType = s.ConnectionType
		}
		return ConnectionDataListPath(s.ParentType, s.ParentKey, childType), nil
	case UserList:
		if userID == "" {
			return "", errors.Wrapf(ErrUnresolvedPath, "user list of %s needs a signed in user", dataType)
		}
		return UserDataListPath(userID, dataType), nil
	case PublicList:
		return PublicDataListPath(dataType), nil
	case nil:
		return "", errors.Wrap(ErrUnresolvedPath, "missing selector")
	}
	return "", errors.Wrapf(ErrUnresolvedPath, "unknown selector %T", sel)
}

func ConnectionDataListPath(parentType, parentKey, dataType string) string {
	return path.Join("connectionDataList", parentType, parentKey, dataType)
}

func UserDataListPath(userID, dataType string) string {
	return path.Join("userDataList", userID, dataType)
}

func PublicDataListPath(dataType string) string {
	return path.Join("publicDataList", dataType)
}

// DataPath is where full values of dataType live; keys are its children.
func DataPath(dataType string) string {
	return path.Join("data", dataType)
}
