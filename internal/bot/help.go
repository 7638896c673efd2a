package bot

const helpText = `🚀 NASA Bot Commands

!help - Show this help message
!apod [YYYY-MM-DD] - Astronomy Picture of the Day (random date from last 3 years if no date)
!mars [YYYY-MM-DD] - Mars Rover Photos (random date from last 3 years if no date)
!earth [search terms] - NASA Image Library Search (up to 3 images, defaults to "earth")
!nasa random - Random APOD from last 3 years
!trivia - Random space-related fact
!spaceweather - Latest solar flare alert
!setchannel - Set this channel for daily APOD posts (admin only)

Data provided by NASA APIs`
