package eventproc

import (
	"github.com/bamilab/quartznet/model"
	"github.com/bamilab/quartznet/wire"
)

func toModelProfile(p wire.Profile) model.Profile {
	return model.Profile{
		Revision:       p.Revision,
		Title:          p.Title,
		Description:    p.Description,
		ProfilePicture: p.ProfilePicture,
	}
}

func toModelChannelProfile(p wire.ChannelProfile) model.Profile {
	m := toModelProfile(p.Base)
	m.Stylesheet = p.Stylesheet
	return m
}
